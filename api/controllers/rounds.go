package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pankaj9057/planning-poker/api/models"
	"github.com/pankaj9057/planning-poker/logging"
)

// vote godoc
// @Summary Cast a vote
// @Description Records the caller's card selection for the current round
// @Tags rounds
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param vote body models.VoteRequest true "Card selection"
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.ErrorResponse "Invalid vote data"
// @Failure 404 {object} models.ErrorResponse "Game or player not found"
// @Failure 409 {object} models.ErrorResponse "Round already revealed"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/games/{id}/vote [post]
func (c *GameController) vote(g *gin.Context) {
	gameID := g.Param("id")

	var req models.VoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format", Message: models.MsgInvalidRequest, Kind: models.KindError})
		return
	}

	if err := c.engine.Vote(g.Request.Context(), gameID, req.PlayerID, req.Card); err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.StatusResponse{Message: models.MsgVoteRecorded, Kind: models.KindInfo})
}

// revealVotes godoc
// @Summary Reveal the round
// @Description Locks voting and computes the average; moderator or delegated members only
// @Tags rounds
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param requester body models.ManageRequest true "Requesting player"
// @Success 200 {object} models.StatusResponse
// @Failure 403 {object} models.ErrorResponse "Not authorized"
// @Failure 404 {object} models.ErrorResponse "Game not found"
// @Failure 409 {object} models.ErrorResponse "Round already revealed"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/games/{id}/reveal [post]
func (c *GameController) revealVotes(g *gin.Context) {
	gameID := g.Param("id")

	var req models.ManageRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format", Message: models.MsgInvalidRequest, Kind: models.KindError})
		return
	}

	snap, err := c.engine.Snapshot(g.Request.Context(), gameID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	if err := c.engine.RevealVotes(g.Request.Context(), gameID, snap.Players, req.PlayerID); err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.StatusResponse{Message: models.MsgVotesRevealed, Kind: models.KindInfo})
}

// resetRound godoc
// @Summary Reset the round
// @Description Clears every player's vote and starts a fresh round; moderator or delegated members only
// @Tags rounds
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param requester body models.ManageRequest true "Requesting player"
// @Success 200 {object} models.StatusResponse
// @Failure 403 {object} models.ErrorResponse "Not authorized"
// @Failure 404 {object} models.ErrorResponse "Game not found"
// @Failure 500 {object} models.ErrorResponse "Reset partially applied"
// @Router /api/games/{id}/reset [post]
func (c *GameController) resetRound(g *gin.Context) {
	gameID := g.Param("id")

	var req models.ManageRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format", Message: models.MsgInvalidRequest, Kind: models.KindError})
		return
	}

	snap, err := c.engine.Snapshot(g.Request.Context(), gameID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	if err := c.engine.ResetRound(g.Request.Context(), gameID, snap.Players, req.PlayerID); err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.StatusResponse{Message: models.MsgRoundReset, Kind: models.KindInfo})
}

// streamEvents godoc
// @Summary Subscribe to game state events
// @Description Server-sent events stream; one snapshot event per observed change until the client disconnects or the game disappears
// @Tags rounds
// @Produce text/event-stream
// @Param id path string true "Game ID"
// @Param playerId query string false "Caller's player id, used to derive view flags"
// @Success 200 {object} models.GameStateResponse
// @Failure 404 {object} models.ErrorResponse "Game not found"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/games/{id}/events [get]
func (c *GameController) streamEvents(g *gin.Context) {
	gameID := g.Param("id")
	// EventSource cannot set headers, so identity rides on the query string.
	playerID := g.Query("playerId")

	snapshots, err := c.watcher.Watch(g.Request.Context(), gameID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	logging.Log.Infof("GAMES: streaming game %s to player %s", gameID, playerID)

	g.Writer.Header().Set("Content-Type", "text/event-stream")
	g.Writer.Header().Set("Cache-Control", "no-cache")
	g.Writer.Header().Set("Connection", "keep-alive")

	g.Stream(func(w io.Writer) bool {
		snap, ok := <-snapshots
		if !ok {
			return false
		}
		g.SSEvent("snapshot", models.TransformSnapshot(&snap, playerID))
		return true
	})
}

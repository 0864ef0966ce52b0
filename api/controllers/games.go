package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pankaj9057/planning-poker/api/models"
	"github.com/pankaj9057/planning-poker/logging"
	"github.com/pankaj9057/planning-poker/session"
	"github.com/pankaj9057/planning-poker/storage"
)

type GameController struct {
	engine  *session.Engine
	watcher *session.Watcher
}

func NewGameController(engine *session.Engine, watcher *session.Watcher) *GameController {
	return &GameController{
		engine:  engine,
		watcher: watcher,
	}
}

func (c *GameController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/games")

	group.POST("", c.createGame)
	group.GET("/:id", c.getGame)
	group.POST("/:id/join", c.joinGame)
	group.POST("/:id/vote", c.vote)
	group.POST("/:id/reveal", c.revealVotes)
	group.POST("/:id/reset", c.resetRound)
	group.GET("/:id/events", c.streamEvents)
}

// createGame godoc
// @Summary Create a new planning poker game
// @Description Creates a game with the requested deck and makes the caller its moderator
// @Tags games
// @Accept json
// @Produce json
// @Param game body models.CreateGameRequest true "Game configuration"
// @Success 201 {object} models.JoinGameResponse
// @Failure 400 {object} models.ErrorResponse "Invalid game data"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/games [post]
func (c *GameController) createGame(g *gin.Context) {
	var req models.CreateGameRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format", Message: models.MsgInvalidRequest, Kind: models.KindError})
		return
	}

	playerID := req.PlayerID
	if playerID == "" {
		playerID = c.generatePlayerID()
	}

	cfg := session.GameConfig{
		Name:               req.Name,
		StoryName:          req.StoryName,
		DeckType:           req.DeckType,
		AutoReveal:         req.AutoReveal,
		AllowMembersManage: req.AllowMembersManage,
	}

	created, _, err := c.engine.CreateGame(g.Request.Context(), cfg, playerID, req.DisplayName)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	snap, err := c.engine.Snapshot(g.Request.Context(), created.ID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusCreated, &models.JoinGameResponse{
		GameID:   created.ID,
		PlayerID: playerID,
		State:    models.TransformSnapshot(snap, playerID),
		Message:  models.MsgGameCreated,
		Kind:     models.KindInfo,
	})
}

// joinGame godoc
// @Summary Join an existing game
// @Description Adds the caller to the game; re-joining the same game is idempotent
// @Tags games
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param player body models.JoinGameRequest true "Player details"
// @Success 200 {object} models.JoinGameResponse
// @Failure 400 {object} models.ErrorResponse "Invalid join data"
// @Failure 404 {object} models.ErrorResponse "Game not found"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/games/{id}/join [post]
func (c *GameController) joinGame(g *gin.Context) {
	gameID := g.Param("id")

	var req models.JoinGameRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format", Message: models.MsgInvalidRequest, Kind: models.KindError})
		return
	}

	playerID := req.PlayerID
	if playerID == "" {
		playerID = c.generatePlayerID()
	}

	joined, player, err := c.engine.JoinGame(g.Request.Context(), gameID, playerID, req.DisplayName)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	snap, err := c.engine.Snapshot(g.Request.Context(), joined.ID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.JoinGameResponse{
		GameID:   joined.ID,
		PlayerID: player.ID,
		State:    models.TransformSnapshot(snap, player.ID),
		Message:  models.MsgGameJoined,
		Kind:     models.KindInfo,
	})
}

// getGame godoc
// @Summary Get the current game state
// @Description Returns the game, its players and the derived view flags for the caller
// @Tags games
// @Produce json
// @Param id path string true "Game ID"
// @Param X-Player-ID header string false "Caller's player id"
// @Success 200 {object} models.GameStateResponse
// @Failure 404 {object} models.ErrorResponse "Game not found"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/games/{id} [get]
func (c *GameController) getGame(g *gin.Context) {
	gameID := g.Param("id")
	playerID := g.GetHeader("X-Player-ID")

	snap, err := c.engine.Snapshot(g.Request.Context(), gameID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, models.TransformSnapshot(snap, playerID))
}

func (c *GameController) generatePlayerID() string {
	id, err := gonanoid.New()
	if err != nil {
		logging.Log.Errorf("GAMES: failed to generate player id: %v", err)
		return ""
	}
	return id
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses and
// message keys. Nothing propagates as a panic.
func writeEngineError(g *gin.Context, err error) {
	var partial *session.PartialApplyError

	switch {
	case errors.Is(err, storage.ErrGameNotFound):
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "game not found", Message: models.MsgGameNotFound, Kind: models.KindError})
	case errors.Is(err, storage.ErrPlayerNotFound):
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "player not found", Message: models.MsgPlayerNotFound, Kind: models.KindError})
	case errors.Is(err, session.ErrNotAuthorized):
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "not authorized", Message: models.MsgNotAuthorized, Kind: models.KindError})
	case errors.Is(err, session.ErrVotingClosed):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "voting is closed for this round", Message: models.MsgVotingClosed, Kind: models.KindError})
	case errors.Is(err, session.ErrAlreadyRevealed):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "round already revealed", Message: models.MsgAlreadyRevealed, Kind: models.KindError})
	case errors.Is(err, session.ErrDependencyUnavailable):
		g.JSON(http.StatusServiceUnavailable, &models.ErrorResponse{Error: "service unavailable", Message: models.MsgUnavailable, Kind: models.KindError})
	case errors.As(err, &partial):
		logging.Log.Errorf("GAMES: partial round reset: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: partial.Error(), Message: models.MsgResetPartial, Kind: models.KindError})
	default:
		logging.Log.Errorf("GAMES: unexpected error: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "internal error", Message: models.MsgInternalError, Kind: models.KindError})
	}
}

package models

import (
	"github.com/pankaj9057/planning-poker/game"
	"github.com/pankaj9057/planning-poker/session"
	"github.com/pankaj9057/planning-poker/storage"
)

type CreateGameRequest struct {
	Name               string `json:"name" binding:"required"`
	StoryName          string `json:"storyName"`
	DeckType           string `json:"deckType"`
	AutoReveal         bool   `json:"autoReveal"`
	AllowMembersManage bool   `json:"allowMembersManage"`
	DisplayName        string `json:"displayName" binding:"required"`
	PlayerID           string `json:"playerId"`
}

type JoinGameRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	PlayerID    string `json:"playerId"`
}

type VoteRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	Card     string `json:"card" binding:"required"`
}

type ManageRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

// PlayerResponse hides the vote value until the round is revealed; before
// that the list only says who has voted, never what.
type PlayerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
	Voted bool   `json:"voted"`
	Value string `json:"value,omitempty"`
}

type GameStateResponse struct {
	Game    *storage.Game    `json:"game"`
	Players []PlayerResponse `json:"players"`
	View    session.View     `json:"view"`
}

type JoinGameResponse struct {
	GameID   string            `json:"gameId"`
	PlayerID string            `json:"playerId"`
	State    GameStateResponse `json:"state"`
	Message  string            `json:"message"`
	Kind     string            `json:"kind"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func TransformPlayer(p *storage.Player, revealed bool) PlayerResponse {
	resp := PlayerResponse{
		ID:    p.ID,
		Name:  p.Name,
		State: string(p.State),
		Voted: p.State == storage.VoteFinished,
	}
	if revealed {
		resp.Value = game.DisplayValue(p.Value)
	}
	return resp
}

func TransformSnapshot(snap *session.Snapshot, selfID string) GameStateResponse {
	resp := GameStateResponse{
		Game:    snap.Game,
		Players: make([]PlayerResponse, 0, len(snap.Players)),
		View:    session.ProjectView(snap.Game, snap.Players, selfID),
	}
	revealed := snap.Game != nil && snap.Game.Phase == storage.PhaseFinished
	for _, p := range snap.Players {
		resp.Players = append(resp.Players, TransformPlayer(p, revealed))
	}
	return resp
}

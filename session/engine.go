// Package session owns the lifecycle of a planning poker game: creating and
// joining games, collecting votes, revealing and resetting rounds, and the
// watcher that converges every connected client on the same snapshot.
package session

import (
	"context"
	"errors"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pankaj9057/planning-poker/game"
	"github.com/pankaj9057/planning-poker/logging"
	"github.com/pankaj9057/planning-poker/storage"
)

// GameIDAlphabet keeps generated ids unambiguous when read out loud or
// typed from a shared link.
const GameIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const gameIDLength = 8

// GameConfig is the creator-supplied configuration for a new game.
type GameConfig struct {
	Name               string
	StoryName          string
	DeckType           string
	AutoReveal         bool
	AllowMembersManage bool
}

// Snapshot is the full known state of one game: the game record plus the
// current player list. View flags are always derived from a Snapshot, never
// from either half alone.
type Snapshot struct {
	Game    *storage.Game
	Players []*storage.Player
}

// Engine is the session state machine. All storage access goes through the
// injected interfaces so tests and local runs can substitute the in-memory
// implementation.
type Engine struct {
	games   storage.GameStorage
	players storage.PlayerStorage
}

func NewEngine(games storage.GameStorage, players storage.PlayerStorage) *Engine {
	return &Engine{
		games:   games,
		players: players,
	}
}

// CreateGame builds a new game in the Started phase and makes the creator
// its moderator. The creator's player record is created on first contact or
// re-parented out of whatever game it was in before, with the vote cleared.
func (e *Engine) CreateGame(ctx context.Context, cfg GameConfig, playerID, displayName string) (*storage.Game, *storage.Player, error) {
	if playerID == "" || displayName == "" {
		return nil, nil, ErrDependencyUnavailable
	}

	gameID, err := gonanoid.Generate(GameIDAlphabet, gameIDLength)
	if err != nil {
		logging.Log.Errorf("ENGINE: failed to generate game id: %v", err)
		return nil, nil, ErrDependencyUnavailable
	}

	newGame := &storage.Game{
		ID:                 gameID,
		Name:               cfg.Name,
		StoryName:          cfg.StoryName,
		DeckType:           cfg.DeckType,
		Cards:              game.DeckFor(cfg.DeckType),
		Phase:              storage.PhaseStarted,
		AutoReveal:         cfg.AutoReveal,
		AllowMembersManage: cfg.AllowMembersManage,
		Average:            nil,
		CreatedByID:        playerID,
		CreatedByName:      displayName,
	}

	if err := e.games.Create(ctx, newGame); err != nil {
		return nil, nil, err
	}

	player, err := e.adoptPlayer(ctx, gameID, playerID, displayName)
	if err != nil {
		return nil, nil, err
	}

	logging.Log.Infof("ENGINE: game %s created by %s", gameID, playerID)
	return newGame, player, nil
}

// JoinGame adds a player to an existing game. Joining a game the player
// already belongs to is idempotent and touches nothing; joining from another
// game re-parents the player record without mutating the prior game.
func (e *Engine) JoinGame(ctx context.Context, gameID, playerID, displayName string) (*storage.Game, *storage.Player, error) {
	if playerID == "" {
		return nil, nil, ErrDependencyUnavailable
	}

	g, err := e.games.Get(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}

	existing, err := e.players.Get(ctx, playerID)
	if err == nil && existing.GameID == gameID {
		return g, existing, nil
	}
	if err != nil && !errors.Is(err, storage.ErrPlayerNotFound) {
		return nil, nil, err
	}

	player, err := e.adoptPlayer(ctx, gameID, playerID, displayName)
	if err != nil {
		return nil, nil, err
	}

	// New membership counts as session activity.
	if err := e.games.Touch(ctx, gameID); err != nil {
		logging.Log.Warnf("ENGINE: failed to touch game %s on join: %v", gameID, err)
	}

	logging.Log.Infof("ENGINE: player %s joined game %s", playerID, gameID)
	return g, player, nil
}

// adoptPlayer upserts the player record into the given game with vote state
// cleared, preserving the original CreatedAt when the record already exists.
func (e *Engine) adoptPlayer(ctx context.Context, gameID, playerID, displayName string) (*storage.Player, error) {
	player := &storage.Player{
		ID:     playerID,
		GameID: gameID,
		Name:   displayName,
		State:  storage.VoteNotStarted,
		Value:  nil,
	}
	if existing, err := e.players.Get(ctx, playerID); err == nil {
		player.CreatedAt = existing.CreatedAt
		if displayName == "" {
			player.Name = existing.Name
		}
	}

	if err := e.players.Put(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Vote records a card selection for a player. Votes are rejected once the
// round is revealed. The first vote of a round moves the game from Started
// to InProgress; the conditional update makes concurrent first votes race
// harmlessly.
func (e *Engine) Vote(ctx context.Context, gameID, playerID, card string) error {
	g, err := e.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Phase == storage.PhaseFinished {
		return ErrVotingClosed
	}

	value := game.ValueForStorage(card)
	if err := e.players.SetVote(ctx, playerID, gameID, value); err != nil {
		return err
	}

	if g.Phase == storage.PhaseStarted {
		err := e.games.AdvancePhase(ctx, gameID, storage.PhaseStarted, storage.PhaseInProgress)
		if err != nil && !errors.Is(err, storage.ErrConditionFailed) {
			return err
		}
	}
	return nil
}

// RevealVotes finalizes the round: computes the average over the supplied
// player snapshot and moves the game to Finished. The storage-level
// condition makes reveal at-most-once; losing the race surfaces
// ErrAlreadyRevealed rather than silently overwriting the first average.
func (e *Engine) RevealVotes(ctx context.Context, gameID string, players []*storage.Player, requesterID string) error {
	g, err := e.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if !Authorized(g, requesterID) {
		return ErrNotAuthorized
	}
	if g.Phase == storage.PhaseFinished {
		return ErrAlreadyRevealed
	}

	avg := game.Average(players)
	if err := e.games.Finalize(ctx, gameID, avg); err != nil {
		if errors.Is(err, storage.ErrConditionFailed) {
			return ErrAlreadyRevealed
		}
		return err
	}

	logging.Log.Infof("ENGINE: game %s revealed by %s", gameID, requesterID)
	return nil
}

// ResetRound starts a fresh round: the game goes back to Started with no
// average, and every player in the snapshot has their vote cleared. The
// per-player clears are independent writes; a partial failure is reported
// as a PartialApplyError and can be retried because clearing is idempotent.
func (e *Engine) ResetRound(ctx context.Context, gameID string, players []*storage.Player, requesterID string) error {
	g, err := e.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if !Authorized(g, requesterID) {
		return ErrNotAuthorized
	}

	if err := e.games.ResetRound(ctx, gameID); err != nil {
		return err
	}

	var failed []string
	var lastErr error
	for _, p := range players {
		if err := e.players.ClearVote(ctx, p.ID); err != nil {
			// A player who left for another game mid-reset is fine to skip;
			// they are no longer part of this game's round.
			if errors.Is(err, storage.ErrPlayerNotFound) {
				continue
			}
			logging.Log.Errorf("ENGINE: failed to clear vote for %s: %v", p.ID, err)
			failed = append(failed, p.ID)
			lastErr = err
		}
	}
	if len(failed) > 0 {
		return &PartialApplyError{GameID: gameID, FailedPlayers: failed, Err: lastErr}
	}

	logging.Log.Infof("ENGINE: game %s round reset by %s", gameID, requesterID)
	return nil
}

// AutoReveal finalizes the round when the auto-reveal flag is set and every
// player in the freshest list has voted. No authorization applies; the
// trigger is the system, not a player. Losing the finalize race to another
// client's auto-reveal is not an error.
func (e *Engine) AutoReveal(ctx context.Context, g *storage.Game, players []*storage.Player) (bool, error) {
	if g == nil || !g.AutoReveal || g.Phase == storage.PhaseFinished || len(players) == 0 {
		return false, nil
	}
	for _, p := range players {
		if p.State != storage.VoteFinished {
			return false, nil
		}
	}

	avg := game.Average(players)
	if err := e.games.Finalize(ctx, g.ID, avg); err != nil {
		if errors.Is(err, storage.ErrConditionFailed) {
			return false, nil
		}
		return false, err
	}

	logging.Log.Infof("ENGINE: game %s auto-revealed", g.ID)
	return true, nil
}

// Snapshot reads the freshest game record and player list.
func (e *Engine) Snapshot(ctx context.Context, gameID string) (*Snapshot, error) {
	g, err := e.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	players, err := e.players.ListByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Game: g, Players: players}, nil
}

// Authorized reports whether a player may reveal or reset: the moderator
// always can, everyone can when the game delegates via AllowMembersManage.
func Authorized(g *storage.Game, playerID string) bool {
	if g == nil || playerID == "" {
		return false
	}
	return g.CreatedByID == playerID || g.AllowMembersManage
}

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pankaj9057/planning-poker/logging"
)

// DynamoChangeFeed implements GameFeed and PlayerFeed on top of plain
// DynamoDB reads by polling on an interval and diffing UpdatedAt stamps.
// Good enough for session-sized tables; swap in a streams consumer without
// touching callers if it ever is not.
type DynamoChangeFeed struct {
	Games    *DynamoGameStorage
	Players  *DynamoPlayerStorage
	Interval time.Duration
}

const defaultPollInterval = 750 * time.Millisecond

func (f *DynamoChangeFeed) interval() time.Duration {
	if f.Interval <= 0 {
		return defaultPollInterval
	}
	return f.Interval
}

func (f *DynamoChangeFeed) WatchGame(ctx context.Context, id string) (<-chan GameChange, error) {
	out := make(chan GameChange, 16)

	go func() {
		defer close(out)

		var last time.Time
		seen := false

		ticker := time.NewTicker(f.interval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			game, err := f.Games.Get(ctx, id)
			if err != nil {
				if errors.Is(err, ErrGameNotFound) {
					if seen {
						// Deleted out from under us by an admin.
						select {
						case out <- GameChange{Kind: ChangeDeleted}:
						case <-ctx.Done():
						}
						return
					}
					continue
				}
				if ctx.Err() != nil {
					return
				}
				logging.Log.Warnf("FEED: game poll failed for %s: %v", id, err)
				continue
			}

			kind := ChangeUpdated
			if !seen {
				kind = ChangeCreated
			}
			if !seen || game.UpdatedAt.After(last) {
				seen = true
				last = game.UpdatedAt
				select {
				case out <- GameChange{Kind: kind, Game: game}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (f *DynamoChangeFeed) WatchPlayers(ctx context.Context, gameID string) (<-chan PlayerChange, error) {
	out := make(chan PlayerChange, 16)

	go func() {
		defer close(out)

		known := make(map[string]time.Time)

		ticker := time.NewTicker(f.interval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			players, err := f.Players.ListByGame(ctx, gameID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.Log.Warnf("FEED: player poll failed for game %s: %v", gameID, err)
				continue
			}

			current := make(map[string]bool, len(players))
			for _, p := range players {
				current[p.ID] = true
				prev, ok := known[p.ID]
				if ok && !p.UpdatedAt.After(prev) {
					continue
				}
				kind := ChangeUpdated
				if !ok {
					kind = ChangeCreated
				}
				known[p.ID] = p.UpdatedAt
				select {
				case out <- PlayerChange{Kind: kind, Player: p}:
				case <-ctx.Done():
					return
				}
			}

			// Players who left for another game show up as deletions of
			// this game's effective member list.
			for id := range known {
				if !current[id] {
					delete(known, id)
					select {
					case out <- PlayerChange{Kind: ChangeDeleted, Player: &Player{ID: id, GameID: gameID}}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, nil
}

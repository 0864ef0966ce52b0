package session

import (
	"context"
	"errors"

	"github.com/pankaj9057/planning-poker/logging"
	"github.com/pankaj9057/planning-poker/storage"
)

// Watcher merges the game change feed and the player change feed for one
// game into a stream of converged snapshots. The two feeds are independent
// and unordered relative to each other, so a notification is only ever a
// hint: the affected collection is re-read in full and the snapshot is
// rebuilt from the freshest state of both halves. The watcher is also where
// auto-reveal fires, evaluated against the freshest player list at the
// moment of the triggering notification.
type Watcher struct {
	engine  *Engine
	games   storage.GameFeed
	players storage.PlayerFeed
}

func NewWatcher(engine *Engine, games storage.GameFeed, players storage.PlayerFeed) *Watcher {
	return &Watcher{
		engine:  engine,
		games:   games,
		players: players,
	}
}

// Watch starts watching a game. The returned channel carries the initial
// snapshot followed by one snapshot per observed change, latest-wins when
// the consumer lags. It closes when ctx is cancelled, when the game record
// disappears, or when a read fails mid-watch; after close the view should
// be abandoned. A game that does not exist at start fails fast with
// storage.ErrGameNotFound.
func (w *Watcher) Watch(ctx context.Context, gameID string) (<-chan Snapshot, error) {
	// Subscribe before the initial fetch so a mutation landing between the
	// two is picked up as a queued notification instead of silently missed.
	gameCh, err := w.games.WatchGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	playerCh, err := w.players.WatchPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	// Initial full fetch; the feeds alone are not a reliable snapshot.
	initial, err := w.engine.Snapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot, 1)
	go w.run(ctx, gameID, *initial, gameCh, playerCh, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, gameID string, current Snapshot, gameCh <-chan storage.GameChange, playerCh <-chan storage.PlayerChange, out chan Snapshot) {
	defer close(out)

	emit(out, current)

	for {
		select {
		case <-ctx.Done():
			return

		case change, ok := <-gameCh:
			if !ok {
				return
			}
			if change.Kind == storage.ChangeDeleted {
				logging.Log.Warnf("WATCH: game %s was deleted", gameID)
				current.Game = nil
				emit(out, current)
				return
			}
			g, err := w.engine.games.Get(ctx, gameID)
			if err != nil {
				if errors.Is(err, storage.ErrGameNotFound) {
					current.Game = nil
					emit(out, current)
					return
				}
				logging.Log.Errorf("WATCH: game re-read failed for %s: %v", gameID, err)
				return
			}
			current.Game = g

		case _, ok := <-playerCh:
			if !ok {
				return
			}
			players, err := w.engine.players.ListByGame(ctx, gameID)
			if err != nil {
				logging.Log.Errorf("WATCH: player re-read failed for %s: %v", gameID, err)
				return
			}
			current.Players = players

			if _, err := w.engine.AutoReveal(ctx, current.Game, players); err != nil {
				logging.Log.Errorf("WATCH: auto-reveal failed for %s: %v", gameID, err)
			}
		}

		emit(out, current)
	}
}

// emit delivers latest-wins: a consumer that has not drained the previous
// snapshot only ever sees the newest one.
func emit(out chan Snapshot, snap Snapshot) {
	for {
		select {
		case out <- snap:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

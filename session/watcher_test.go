package session

import (
	"context"
	"testing"
	"time"

	"github.com/pankaj9057/planning-poker/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWatcher(t *testing.T) (*Engine, *Watcher, *storage.MemoryStorage) {
	t.Helper()
	engine, mem := setupEngine(t)
	return engine, NewWatcher(engine, mem, mem), mem
}

// waitFor reads snapshots until one satisfies the predicate. Intermediate
// snapshots may be skipped: delivery is latest-wins.
func waitFor(t *testing.T, ch <-chan Snapshot, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap, ok := <-ch:
			require.True(t, ok, "snapshot channel closed before the expected state arrived")
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return Snapshot{}
		}
	}
}

func waitForClose(t *testing.T, ch <-chan Snapshot) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot channel to close")
		}
	}
}

func TestWatchDeliversInitialSnapshot(t *testing.T) {
	engine, watcher, _ := setupWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created := mustCreateGame(t, engine, GameConfig{Name: "sprint"}, "mod", "Alice")

	ch, err := watcher.Watch(ctx, created.ID)
	require.NoError(t, err)

	snap := waitFor(t, ch, func(s Snapshot) bool { return s.Game != nil })
	assert.Equal(t, created.ID, snap.Game.ID)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "mod", snap.Players[0].ID)
}

func TestWatchUnknownGameFailsFast(t *testing.T) {
	_, watcher, _ := setupWatcher(t)

	_, err := watcher.Watch(context.Background(), "NOPE1234")
	assert.ErrorIs(t, err, storage.ErrGameNotFound)
}

func TestWatchConvergesOnBothFeeds(t *testing.T) {
	engine, watcher, _ := setupWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created := mustCreateGame(t, engine, GameConfig{Name: "sprint"}, "mod", "Alice")

	ch, err := watcher.Watch(ctx, created.ID)
	require.NoError(t, err)

	// Player feed: a second player joins.
	_, _, err = engine.JoinGame(ctx, created.ID, "p1", "Bob")
	require.NoError(t, err)
	waitFor(t, ch, func(s Snapshot) bool { return len(s.Players) == 2 })

	// Both feeds: a vote updates the player and advances the game phase.
	require.NoError(t, engine.Vote(ctx, created.ID, "p1", "5"))
	snap := waitFor(t, ch, func(s Snapshot) bool {
		if s.Game == nil || s.Game.Phase != storage.PhaseInProgress {
			return false
		}
		view := ProjectView(s.Game, s.Players, "mod")
		return view.FinishedCount == 1
	})
	assert.Equal(t, 2, len(snap.Players))
}

func TestWatchAutoRevealsWhenAllVoted(t *testing.T) {
	engine, watcher, mem := setupWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created := mustCreateGame(t, engine, GameConfig{Name: "sprint", AutoReveal: true}, "mod", "Alice")
	_, _, err := engine.JoinGame(ctx, created.ID, "p1", "Bob")
	require.NoError(t, err)

	ch, err := watcher.Watch(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, engine.Vote(ctx, created.ID, "mod", "3"))

	// One vote of two: no reveal yet.
	waitFor(t, ch, func(s Snapshot) bool {
		return ProjectView(s.Game, s.Players, "mod").FinishedCount == 1
	})
	g, err := mem.Games().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, storage.PhaseFinished, g.Phase)

	// Second vote: the watcher reveals on its own.
	require.NoError(t, engine.Vote(ctx, created.ID, "p1", "5"))
	require.Eventually(t, func() bool {
		g, err := mem.Games().Get(ctx, created.ID)
		return err == nil && g.Phase == storage.PhaseFinished
	}, 3*time.Second, 10*time.Millisecond)

	g, err = mem.Games().Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, g.Average)
	assert.Equal(t, 4.00, *g.Average)
}

func TestConcurrentWatchersRevealOnce(t *testing.T) {
	engine, watcher, mem := setupWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created := mustCreateGame(t, engine, GameConfig{Name: "sprint", AutoReveal: true}, "mod", "Alice")
	_, _, err := engine.JoinGame(ctx, created.ID, "p1", "Bob")
	require.NoError(t, err)

	// Every client runs its own watcher; the conditional finalize makes
	// sure only one of them lands the reveal.
	for i := 0; i < 4; i++ {
		_, err := watcher.Watch(ctx, created.ID)
		require.NoError(t, err)
	}

	require.NoError(t, engine.Vote(ctx, created.ID, "mod", "3"))
	require.NoError(t, engine.Vote(ctx, created.ID, "p1", "5"))

	require.Eventually(t, func() bool {
		g, err := mem.Games().Get(ctx, created.ID)
		return err == nil && g.Phase == storage.PhaseFinished
	}, 3*time.Second, 10*time.Millisecond)

	// The average reflects exactly one reveal over the full vote set.
	g, err := mem.Games().Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, g.Average)
	assert.Equal(t, 4.00, *g.Average)
}

func TestWatchEndsWhenGameDisappears(t *testing.T) {
	engine, watcher, mem := setupWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created := mustCreateGame(t, engine, GameConfig{Name: "sprint"}, "mod", "Alice")

	ch, err := watcher.Watch(ctx, created.ID)
	require.NoError(t, err)
	waitFor(t, ch, func(s Snapshot) bool { return s.Game != nil })

	mem.Games().Delete(created.ID)
	waitForClose(t, ch)
}

func TestWatchTeardownOnCancel(t *testing.T) {
	engine, watcher, _ := setupWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())

	created := mustCreateGame(t, engine, GameConfig{Name: "sprint"}, "mod", "Alice")

	ch, err := watcher.Watch(ctx, created.ID)
	require.NoError(t, err)
	waitFor(t, ch, func(s Snapshot) bool { return s.Game != nil })

	cancel()
	waitForClose(t, ch)
}

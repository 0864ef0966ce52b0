package session

import (
	"testing"

	"github.com/pankaj9057/planning-poker/storage"
	"github.com/stretchr/testify/assert"
)

func TestProjectView(t *testing.T) {
	g := &storage.Game{
		ID:          "G1",
		Phase:       storage.PhaseInProgress,
		CreatedByID: "mod",
	}
	players := []*storage.Player{
		{ID: "mod", GameID: "G1", State: storage.VoteFinished},
		{ID: "p1", GameID: "G1", State: storage.VoteNotStarted},
		{ID: "p2", GameID: "G1", State: storage.VoteFinished},
	}

	t.Run("moderator mid-round", func(t *testing.T) {
		view := ProjectView(g, players, "mod")
		assert.Equal(t, 2, view.FinishedCount)
		assert.Equal(t, 3, view.TotalPlayers)
		assert.True(t, view.IsModerator)
		assert.True(t, view.CanManage)
		assert.True(t, view.CanReveal)
		assert.False(t, view.CanReset)
	})

	t.Run("regular member cannot manage", func(t *testing.T) {
		view := ProjectView(g, players, "p1")
		assert.False(t, view.IsModerator)
		assert.False(t, view.CanManage)
		assert.False(t, view.CanReveal)
		assert.False(t, view.CanReset)
	})

	t.Run("delegation flips permissions for members", func(t *testing.T) {
		delegated := *g
		delegated.AllowMembersManage = true

		view := ProjectView(&delegated, players, "p1")
		assert.False(t, view.IsModerator)
		assert.True(t, view.CanManage)
		assert.True(t, view.CanReveal)
	})

	t.Run("finished round swaps reveal for reset", func(t *testing.T) {
		finished := *g
		finished.Phase = storage.PhaseFinished

		view := ProjectView(&finished, players, "mod")
		assert.False(t, view.CanReveal)
		assert.True(t, view.CanReset)
	})

	t.Run("nil game yields the zero view", func(t *testing.T) {
		assert.Equal(t, View{}, ProjectView(nil, players, "mod"))
	})
}

package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	testutils "github.com/pankaj9057/planning-poker/api/controllers/testing"
	"github.com/pankaj9057/planning-poker/api/models"
	"github.com/pankaj9057/planning-poker/logging"
	"github.com/pankaj9057/planning-poker/session"
	"github.com/pankaj9057/planning-poker/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestGameController(t *testing.T) (*gin.Engine, *storage.MemoryStorage) {
	t.Helper()
	logging.Log = logrus.New()

	mem := storage.NewMemoryStorage()
	engine := session.NewEngine(mem.Games(), mem.Players())
	watcher := session.NewWatcher(engine, mem, mem)

	gameController := NewGameController(engine, watcher)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	gameController.RegisterRoutes(r)

	return r, mem
}

func createTestGame(t *testing.T, router *gin.Engine, req models.CreateGameRequest) models.JoinGameResponse {
	t.Helper()
	res := testutils.PerformRequest(router, http.MethodPost, "/api/games", req, nil)
	require.Equal(t, http.StatusCreated, res.Code)

	var parsed models.JoinGameResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &parsed))
	return parsed
}

func TestCreateGameEndpoint(t *testing.T) {
	router, _ := setupTestGameController(t)

	t.Run("Happy path - create game", func(t *testing.T) {
		parsed := createTestGame(t, router, models.CreateGameRequest{
			Name:        "sprint 42",
			DeckType:    "fibonacci",
			DisplayName: "Alice",
			PlayerID:    "mod-1",
		})

		assert.Len(t, parsed.GameID, 8)
		assert.Equal(t, "mod-1", parsed.PlayerID)
		assert.Equal(t, models.MsgGameCreated, parsed.Message)
		assert.Equal(t, models.KindInfo, parsed.Kind)
		require.NotNil(t, parsed.State.Game)
		assert.Equal(t, storage.PhaseStarted, parsed.State.Game.Phase)
		assert.True(t, parsed.State.View.IsModerator)
	})

	t.Run("player id is minted when absent", func(t *testing.T) {
		parsed := createTestGame(t, router, models.CreateGameRequest{
			Name:        "sprint 43",
			DisplayName: "Bob",
		})
		assert.NotEmpty(t, parsed.PlayerID)
	})

	t.Run("missing name is a bad request", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, "/api/games", models.CreateGameRequest{DisplayName: "Alice"}, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestJoinGameEndpoint(t *testing.T) {
	router, _ := setupTestGameController(t)

	created := createTestGame(t, router, models.CreateGameRequest{
		Name:        "sprint",
		DisplayName: "Alice",
		PlayerID:    "mod",
	})

	t.Run("joining an unknown game is 404", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, "/api/games/NOPE1234/join", models.JoinGameRequest{DisplayName: "Bob"}, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)

		var parsed models.ErrorResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &parsed))
		assert.Equal(t, models.MsgGameNotFound, parsed.Message)
	})

	t.Run("Happy path - join game", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/join", created.GameID), models.JoinGameRequest{DisplayName: "Bob", PlayerID: "p1"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var parsed models.JoinGameResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &parsed))
		assert.Equal(t, created.GameID, parsed.GameID)
		assert.Equal(t, "p1", parsed.PlayerID)
		assert.Equal(t, 2, parsed.State.View.TotalPlayers)
	})

	t.Run("second join is idempotent", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/join", created.GameID), models.JoinGameRequest{DisplayName: "Bob", PlayerID: "p1"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var parsed models.JoinGameResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &parsed))
		assert.Equal(t, 2, parsed.State.View.TotalPlayers)
	})
}

func TestVoteAndRevealEndpoints(t *testing.T) {
	router, _ := setupTestGameController(t)

	created := createTestGame(t, router, models.CreateGameRequest{
		Name:        "sprint",
		DisplayName: "Alice",
		PlayerID:    "mod",
	})
	gameID := created.GameID

	res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/join", gameID), models.JoinGameRequest{DisplayName: "Bob", PlayerID: "p1"}, nil)
	require.Equal(t, http.StatusOK, res.Code)

	t.Run("votes are hidden before reveal", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/vote", gameID), models.VoteRequest{PlayerID: "p1", Card: "5"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(router, http.MethodGet, fmt.Sprintf("/api/games/%s", gameID), nil, map[string]string{"X-Player-ID": "mod"})
		require.Equal(t, http.StatusOK, res.Code)

		var state models.GameStateResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &state))
		assert.Equal(t, 1, state.View.FinishedCount)
		for _, p := range state.Players {
			assert.Empty(t, p.Value, "player %s value must stay hidden before reveal", p.ID)
		}
	})

	t.Run("reveal by a regular member is forbidden", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/reveal", gameID), models.ManageRequest{PlayerID: "p1"}, nil)
		assert.Equal(t, http.StatusForbidden, res.Code)

		var parsed models.ErrorResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &parsed))
		assert.Equal(t, models.MsgNotAuthorized, parsed.Message)
	})

	t.Run("Happy path - moderator reveals and values become visible", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/vote", gameID), models.VoteRequest{PlayerID: "mod", Card: "3"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/reveal", gameID), models.ManageRequest{PlayerID: "mod"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(router, http.MethodGet, fmt.Sprintf("/api/games/%s", gameID), nil, map[string]string{"X-Player-ID": "mod"})
		require.Equal(t, http.StatusOK, res.Code)

		var state models.GameStateResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &state))
		require.NotNil(t, state.Game)
		assert.Equal(t, storage.PhaseFinished, state.Game.Phase)
		require.NotNil(t, state.Game.Average)
		assert.Equal(t, 4.00, *state.Game.Average)

		values := map[string]string{}
		for _, p := range state.Players {
			values[p.ID] = p.Value
		}
		assert.Equal(t, "5", values["p1"])
		assert.Equal(t, "3", values["mod"])
	})

	t.Run("votes after reveal are rejected", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/vote", gameID), models.VoteRequest{PlayerID: "p1", Card: "13"}, nil)
		assert.Equal(t, http.StatusConflict, res.Code)

		var parsed models.ErrorResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &parsed))
		assert.Equal(t, models.MsgVotingClosed, parsed.Message)
	})

	t.Run("second reveal is a conflict", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/reveal", gameID), models.ManageRequest{PlayerID: "mod"}, nil)
		assert.Equal(t, http.StatusConflict, res.Code)

		var parsed models.ErrorResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &parsed))
		assert.Equal(t, models.MsgAlreadyRevealed, parsed.Message)
	})

	t.Run("reset starts a fresh round", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/reset", gameID), models.ManageRequest{PlayerID: "mod"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(router, http.MethodGet, fmt.Sprintf("/api/games/%s", gameID), nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var state models.GameStateResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &state))
		require.NotNil(t, state.Game)
		assert.Equal(t, storage.PhaseStarted, state.Game.Phase)
		assert.Nil(t, state.Game.Average)
		assert.Equal(t, 0, state.View.FinishedCount)
	})
}

// failingClearStorage rejects ClearVote for one player, standing in for a
// storage brownout mid-reset.
type failingClearStorage struct {
	storage.PlayerStorage
	failID string
}

func (f *failingClearStorage) ClearVote(ctx context.Context, id string) error {
	if id == f.failID {
		return errors.New("write throttled")
	}
	return f.PlayerStorage.ClearVote(ctx, id)
}

func TestResetRoundPartialFailureEndpoint(t *testing.T) {
	logging.Log = logrus.New()

	mem := storage.NewMemoryStorage()
	players := &failingClearStorage{PlayerStorage: mem.Players(), failID: "p1"}
	engine := session.NewEngine(mem.Games(), players)
	watcher := session.NewWatcher(engine, mem, mem)

	gameController := NewGameController(engine, watcher)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	gameController.RegisterRoutes(router)

	created := createTestGame(t, router, models.CreateGameRequest{
		Name:        "sprint",
		DisplayName: "Alice",
		PlayerID:    "mod",
	})
	gameID := created.GameID

	res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/join", gameID), models.JoinGameRequest{DisplayName: "Bob", PlayerID: "p1"}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/vote", gameID), models.VoteRequest{PlayerID: "p1", Card: "5"}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/reveal", gameID), models.ManageRequest{PlayerID: "mod"}, nil)
	require.Equal(t, http.StatusOK, res.Code)

	t.Run("partial reset maps to 500 with its own message key", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/reset", gameID), models.ManageRequest{PlayerID: "mod"}, nil)
		assert.Equal(t, http.StatusInternalServerError, res.Code)

		var parsed models.ErrorResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &parsed))
		assert.Equal(t, models.MsgResetPartial, parsed.Message)
		assert.Equal(t, models.KindError, parsed.Kind)
	})

	t.Run("a retry after the brownout succeeds", func(t *testing.T) {
		players.failID = ""

		res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/reset", gameID), models.ManageRequest{PlayerID: "mod"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(router, http.MethodGet, fmt.Sprintf("/api/games/%s", gameID), nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var state models.GameStateResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &state))
		assert.Equal(t, 0, state.View.FinishedCount)
	})
}

func TestStreamEventsEndpoint(t *testing.T) {
	router, _ := setupTestGameController(t)

	created := createTestGame(t, router, models.CreateGameRequest{
		Name:        "sprint",
		DisplayName: "Alice",
		PlayerID:    "mod",
	})
	gameID := created.GameID

	res := testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/join", gameID), models.JoinGameRequest{DisplayName: "Bob", PlayerID: "p1"}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = testutils.PerformRequest(router, http.MethodPost, fmt.Sprintf("/api/games/%s/vote", gameID), models.VoteRequest{PlayerID: "p1", Card: "5"}, nil)
	require.Equal(t, http.StatusOK, res.Code)

	t.Run("streaming an unknown game is 404", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodGet, "/api/games/NOPE1234/events", nil, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("Happy path - stream emits a snapshot with hidden values", func(t *testing.T) {
		// A real server because the stream only ends on client disconnect.
		srv := httptest.NewServer(router)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/games/%s/events?playerId=p1", srv.URL, gameID), nil)
		require.NoError(t, err)

		stream, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer stream.Body.Close()

		require.Equal(t, http.StatusOK, stream.StatusCode)
		assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

		// Read up to the first blank line: one complete SSE event.
		reader := bufio.NewReader(stream.Body)
		var event strings.Builder
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.TrimRight(line, "\n") == "" {
				break
			}
			event.WriteString(line)
		}

		payload := event.String()
		assert.Contains(t, payload, "event:snapshot")
		assert.Contains(t, payload, `"voted":true`)
		assert.NotContains(t, payload, `"value"`)
	})
}

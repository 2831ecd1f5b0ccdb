package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpsarena/backend/internal/api/handlers"
	"github.com/rpsarena/backend/internal/config"
	"github.com/rpsarena/backend/internal/game"
	"github.com/rpsarena/backend/internal/matchmaking"
	"github.com/rpsarena/backend/internal/model"
	"github.com/rpsarena/backend/internal/protocol"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func gameEngine(t *testing.T) (*gin.Engine, *game.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mgr := game.NewManager(ctx, nil)
	engine := gin.New()
	engine.POST("/create_game", handlers.CreateGame(mgr))
	engine.GET("/game/:id", handlers.GetGame(mgr))
	return engine, mgr
}

func doJSON(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreateGameEndpoint(t *testing.T) {
	engine, mgr := gameEngine(t)

	body := `{"players":["11111111-1111-1111-1111-111111111111","22222222-2222-2222-2222-222222222222"],"gamesToWin":1}`
	w := doJSON(engine, http.MethodPost, "/create_game", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created protocol.CreateGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEqual(t, model.NilID, created.GameID)
	assert.Equal(t, 1, mgr.ActiveGames())

	// Either player already being in a game conflicts.
	other := `{"players":["11111111-1111-1111-1111-111111111111","33333333-3333-3333-3333-333333333333"],"gamesToWin":1}`
	w = doJSON(engine, http.MethodPost, "/create_game", other)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateGameRejectsBadRequests(t *testing.T) {
	engine, _ := gameEngine(t)

	w := doJSON(engine, http.MethodPost, "/create_game", `{"players":["not-a-uuid","x"],"gamesToWin":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(engine, http.MethodPost, "/create_game", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(engine, http.MethodPost, "/create_game",
		`{"players":["11111111-1111-1111-1111-111111111111","22222222-2222-2222-2222-222222222222"],"gamesToWin":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGameEndpoint(t *testing.T) {
	engine, _ := gameEngine(t)

	body := `{"players":["11111111-1111-1111-1111-111111111111","22222222-2222-2222-2222-222222222222"],"gamesToWin":1}`
	w := doJSON(engine, http.MethodPost, "/create_game", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var created protocol.CreateGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(engine, http.MethodGet, "/game/"+created.GameID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var got protocol.GetGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.GameID, got.GameID)
	assert.Equal(t, model.MustParseID("11111111-1111-1111-1111-111111111111"), got.Players[0])

	w = doJSON(engine, http.MethodGet, "/game/"+model.NewID().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(engine, http.MethodGet, "/game/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostGameResultEndpoint(t *testing.T) {
	engine := gin.New()
	engine.POST("/game/result", handlers.PostGameResult(matchmaking.NewStore(nil)))

	w := doJSON(engine, http.MethodPost, "/game/result", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Without a database the write fails and the caller is told so.
	body := `{"gameId":"44444444-4444-4444-4444-444444444444","gamesWon":[2,1]}`
	w = doJSON(engine, http.MethodPost, "/game/result", body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestQueueStatusEndpoint(t *testing.T) {
	svc := matchmaking.NewService(&config.Matchmaking{}, nil, nil)
	engine := gin.New()
	engine.GET("/queue/status", handlers.QueueStatus(svc))

	w := doJSON(engine, http.MethodGet, "/queue/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"queueSize":0}`, w.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	engine := gin.New()
	engine.GET("/", handlers.Root)
	engine.GET("/health", handlers.HealthCheck("matchmaking"))

	w := doJSON(engine, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello, World!", w.Body.String())

	w = doJSON(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "matchmaking", health["service"])
}

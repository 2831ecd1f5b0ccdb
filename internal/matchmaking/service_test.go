package matchmaking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpsarena/backend/internal/config"
	"github.com/rpsarena/backend/internal/model"
	"github.com/rpsarena/backend/internal/protocol"
)

func testConfig(gameServerURL string) *config.Matchmaking {
	return &config.Matchmaking{
		Environment:          "test",
		GameServerURL:        gameServerURL,
		GameServerPublicAddr: "ws://localhost:3002",
		GamesToWin:           1,
		PairingTickMS:        5,
		PushTickMS:           5,
	}
}

func testPlayer(id string) (Player, chan protocol.QueueResponse) {
	push := make(chan protocol.QueueResponse, 16)
	return Player{ID: model.MustParseID(id), Push: push}, push
}

// fakeGameServer answers POST /create_game and records the request bodies it
// saw, in order.
type fakeGameServer struct {
	mu       sync.Mutex
	fail     bool
	requests []protocol.CreateGameRequest
	srv      *httptest.Server
}

func newFakeGameServer(fail bool) *fakeGameServer {
	f := &fakeGameServer{fail: fail}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req protocol.CreateGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		fail := f.fail
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(protocol.CreateGameResponse{GameID: model.NewID()})
	}))
	return f
}

func (f *fakeGameServer) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeGameServer) seen() []protocol.CreateGameRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.CreateGameRequest(nil), f.requests...)
}

func TestJoinIsIdempotent(t *testing.T) {
	svc := NewService(testConfig(""), nil, nil)
	p, push := testPlayer("11111111-1111-1111-1111-111111111111")

	svc.join(p)
	svc.join(p)

	assert.Equal(t, 1, svc.QueueSize())
	require.Len(t, push, 1, "a duplicate join must not get a second JoinedQueue")
	assert.Equal(t, protocol.JoinedQueue{}, <-push)
}

func TestLeaveRemovesPlayer(t *testing.T) {
	svc := NewService(testConfig(""), nil, nil)
	p1, _ := testPlayer("11111111-1111-1111-1111-111111111111")
	p2, _ := testPlayer("22222222-2222-2222-2222-222222222222")

	svc.join(p1)
	svc.join(p2)
	svc.leave(p1.ID)

	assert.Equal(t, 1, svc.QueueSize())

	// Leaving twice, or leaving while never enqueued, is a no-op.
	svc.leave(p1.ID)
	svc.leave(model.MustParseID("33333333-3333-3333-3333-333333333333"))
	assert.Equal(t, 1, svc.QueueSize())
}

func TestPairTickNeedsTwoPlayers(t *testing.T) {
	gs := newFakeGameServer(false)
	defer gs.srv.Close()
	svc := NewService(testConfig(gs.srv.URL), nil, nil)

	svc.pairTick(context.Background())
	assert.Empty(t, gs.seen())

	p1, push := testPlayer("11111111-1111-1111-1111-111111111111")
	svc.join(p1)
	svc.pairTick(context.Background())

	assert.Empty(t, gs.seen(), "a lone player must not be paired")
	assert.Equal(t, 1, svc.QueueSize(), "the lone player stays at the head")
	<-push
	assert.Empty(t, push)
}

func TestPairTickMatchesInArrivalOrder(t *testing.T) {
	gs := newFakeGameServer(false)
	defer gs.srv.Close()
	svc := NewService(testConfig(gs.srv.URL), nil, nil)

	ids := []string{
		"11111111-1111-1111-1111-111111111111",
		"22222222-2222-2222-2222-222222222222",
		"33333333-3333-3333-3333-333333333333",
		"44444444-4444-4444-4444-444444444444",
		"55555555-5555-5555-5555-555555555555",
	}
	pushes := make([]chan protocol.QueueResponse, len(ids))
	for i, id := range ids {
		p, push := testPlayer(id)
		pushes[i] = push
		svc.join(p)
		<-push // JoinedQueue
	}

	svc.pairTick(context.Background())

	seen := gs.seen()
	require.Len(t, seen, 2)
	assert.Equal(t, model.MustParseID(ids[0]), seen[0].Players[0])
	assert.Equal(t, model.MustParseID(ids[1]), seen[0].Players[1])
	assert.Equal(t, model.MustParseID(ids[2]), seen[1].Players[0])
	assert.Equal(t, model.MustParseID(ids[3]), seen[1].Players[1])

	for i := 0; i < 4; i++ {
		require.Len(t, pushes[i], 1, "player %d should have MatchFound", i)
		found, ok := (<-pushes[i]).(protocol.MatchFound)
		require.True(t, ok)
		assert.Equal(t, "ws://localhost:3002", found.ServerAddress)
	}

	// The odd player out keeps their place for the next tick.
	assert.Equal(t, 1, svc.QueueSize())
	assert.Empty(t, pushes[4])
}

func TestCreateGameFailureReenqueuesPair(t *testing.T) {
	gs := newFakeGameServer(true)
	defer gs.srv.Close()
	svc := NewService(testConfig(gs.srv.URL), nil, nil)

	p1, push1 := testPlayer("11111111-1111-1111-1111-111111111111")
	p2, push2 := testPlayer("22222222-2222-2222-2222-222222222222")
	svc.join(p1)
	svc.join(p2)
	<-push1
	<-push2

	svc.pairTick(context.Background())

	assert.Len(t, gs.seen(), createGameAttempts, "every attempt hits the RPC")
	assert.Equal(t, 2, svc.QueueSize(), "a failed pair goes back to the queue")
	assert.Empty(t, push1)
	assert.Empty(t, push2)

	// Once the game server recovers, the next tick pairs them again.
	gs.setFail(false)
	svc.pairTick(context.Background())

	assert.Equal(t, 0, svc.QueueSize())
	require.Len(t, push1, 1)
	require.Len(t, push2, 1)
	found1 := (<-push1).(protocol.MatchFound)
	found2 := (<-push2).(protocol.MatchFound)
	assert.Equal(t, found1.GameID, found2.GameID)
}

func TestRunHandlesJoinAndLeave(t *testing.T) {
	svc := NewService(testConfig(""), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	requests := make(chan Request, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx, requests)
	}()

	p, push := testPlayer("11111111-1111-1111-1111-111111111111")
	requests <- JoinQueue{Player: p}

	assert.Equal(t, protocol.JoinedQueue{}, <-push)
	assert.Equal(t, 1, svc.QueueSize())

	requests <- LeaveQueue{UserID: p.ID}
	assert.Eventually(t, func() bool { return svc.QueueSize() == 0 },
		assertWait, assertTick)

	cancel()
	<-done
}

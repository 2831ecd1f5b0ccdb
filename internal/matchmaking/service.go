// Package matchmaking owns the pairing queue: it turns join/leave messages
// from queue-socket sessions into game-creation RPCs against the game
// server, and announces the resulting matches back through each player's
// push sink.
package matchmaking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/rpsarena/backend/internal/config"
	"github.com/rpsarena/backend/internal/model"
	"github.com/rpsarena/backend/internal/protocol"
)

// Player is a queued user together with the push sink of the session that
// owns them. The sink is the only route back to the user; it dies with the
// session.
type Player struct {
	ID   model.ID
	Push chan<- protocol.QueueResponse
}

// Request is an internal message into the matchmaking loop.
type Request interface{ matchmakingRequest() }

// JoinQueue enqueues a player.
type JoinQueue struct{ Player Player }

// LeaveQueue removes a player whose session went away.
type LeaveQueue struct{ UserID model.ID }

func (JoinQueue) matchmakingRequest()  {}
func (LeaveQueue) matchmakingRequest() {}

// createGameAttempts bounds the create_game retry loop; after that the pair
// is re-enqueued at the tail rather than silently dropped.
const createGameAttempts = 3

const assignmentTTL = 10 * time.Minute

// Service holds the queue state. All mutation happens on the Run goroutine;
// the mutex exists so the HTTP surface and tests can take consistent reads.
type Service struct {
	cfg    *config.Matchmaking
	store  *Store
	rdb    *redis.Client
	client *http.Client

	mu      sync.Mutex
	queue   []Player
	inQueue map[model.ID]struct{}
}

// NewService builds the matchmaking loop. db and rdb may be nil: match
// metadata writes then fail (and are logged), and the Redis mirror is
// skipped.
func NewService(cfg *config.Matchmaking, db *sqlx.DB, rdb *redis.Client) *Service {
	return &Service{
		cfg:     cfg,
		store:   NewStore(db),
		rdb:     rdb,
		client:  &http.Client{Timeout: 5 * time.Second},
		inQueue: make(map[model.ID]struct{}),
	}
}

// Store exposes the persistence adapter for the HTTP result-ingest handler.
func (s *Service) Store() *Store {
	return s.store
}

// Run processes queue messages and fires the pairing tick until ctx ends.
func (s *Service) Run(ctx context.Context, requests <-chan Request) {
	ticker := time.NewTicker(s.cfg.PairingTick())
	defer ticker.Stop()

	log.Printf("[MATCHMAKER] started (pairing tick %v)", s.cfg.PairingTick())
	for {
		select {
		case <-ctx.Done():
			log.Printf("[MATCHMAKER] stopped")
			return
		case req := <-requests:
			s.handle(req)
		case <-ticker.C:
			s.pairTick(ctx)
		}
	}
}

func (s *Service) handle(req Request) {
	switch req := req.(type) {
	case JoinQueue:
		s.join(req.Player)
	case LeaveQueue:
		s.leave(req.UserID)
	default:
		log.Printf("[MATCHMAKER] unhandled request %T", req)
	}
}

// join appends the player unless they are already enqueued; a duplicate is
// a warning, not an error, and gets no second JoinedQueue.
func (s *Service) join(p Player) {
	s.mu.Lock()
	if _, ok := s.inQueue[p.ID]; ok {
		s.mu.Unlock()
		log.Printf("[MATCHMAKER] user %s is already in the queue", p.ID)
		return
	}
	s.queue = append(s.queue, p)
	s.inQueue[p.ID] = struct{}{}
	size := len(s.queue)
	s.mu.Unlock()

	log.Printf("[MATCHMAKER] user %s joined the queue (size %d)", p.ID, size)
	s.push(p, protocol.JoinedQueue{})
	s.mirrorQueueSize()
}

func (s *Service) leave(userID model.ID) {
	s.mu.Lock()
	if _, ok := s.inQueue[userID]; !ok {
		s.mu.Unlock()
		log.Printf("[MATCHMAKER] user %s is not in the queue", userID)
		return
	}
	delete(s.inQueue, userID)
	for i, p := range s.queue {
		if p.ID == userID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.mu.Unlock()
			log.Printf("[MATCHMAKER] user %s left the queue", userID)
			s.mirrorQueueSize()
			return
		}
	}
	s.mu.Unlock()
	log.Printf("[MATCHMAKER] user %s was tracked but missing from the queue", userID)
}

// pairTick drains the queue front to back, pairing each player with the one
// held from the previous step. The leftover unmatched player, if any, is
// restored to the head so arrival order keeps winning.
func (s *Service) pairTick(ctx context.Context) {
	s.mu.Lock()
	var pairs [][2]Player
	holder := make([]Player, 0, 1)
	for _, p := range s.queue {
		if len(holder) == 0 {
			holder = append(holder, p)
			continue
		}
		pairs = append(pairs, [2]Player{holder[0], p})
		holder = holder[:0]
	}
	s.queue = append(s.queue[:0:0], holder...)
	s.mu.Unlock()

	if len(pairs) == 0 {
		return
	}
	for _, pair := range pairs {
		s.announce(ctx, pair)
	}
	s.mirrorQueueSize()
}

// announce materializes one pair into a game and tells both players where
// to go. On RPC exhaustion the pair goes back to the queue tail; both
// players stay tracked so a later tick retries them.
func (s *Service) announce(ctx context.Context, pair [2]Player) {
	created, err := s.createGame(ctx, pair[0].ID, pair[1].ID)
	if err != nil {
		log.Printf("[MATCHMAKER] create_game failed for %s vs %s, re-enqueueing: %v",
			pair[0].ID, pair[1].ID, err)
		s.mu.Lock()
		s.queue = append(s.queue, pair[0], pair[1])
		s.mu.Unlock()
		return
	}

	log.Printf("[MATCHMAKER] matched %s vs %s into game %s", pair[0].ID, pair[1].ID, created.GameID)

	// The game is already live on the game server; its metadata row is
	// best effort.
	if err := s.store.InsertMatch(ctx, created.GameID, pair[0].ID, pair[1].ID, s.cfg.GamesToWin); err != nil {
		log.Printf("[DB] insert match %s failed: %v", created.GameID, err)
	}

	found := protocol.MatchFound{
		GameID:        created.GameID,
		ServerAddress: s.cfg.GameServerPublicAddr,
	}
	for _, p := range pair {
		s.push(p, found)
		s.recordAssignment(p.ID, created.GameID)
	}

	s.mu.Lock()
	delete(s.inQueue, pair[0].ID)
	delete(s.inQueue, pair[1].ID)
	s.mu.Unlock()
}

func (s *Service) createGame(ctx context.Context, p1, p2 model.ID) (*protocol.CreateGameResponse, error) {
	body, err := json.Marshal(protocol.CreateGameRequest{
		Players:    [2]model.ID{p1, p2},
		GamesToWin: s.cfg.GamesToWin,
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= createGameAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
		created, err := s.postCreateGame(ctx, body)
		if err == nil {
			return created, nil
		}
		lastErr = err
		log.Printf("[MATCHMAKER] create_game attempt %d/%d failed: %v", attempt, createGameAttempts, err)
	}
	return nil, lastErr
}

func (s *Service) postCreateGame(ctx context.Context, body []byte) (*protocol.CreateGameResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.GameServerURL+"/create_game", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create_game returned %s", resp.Status)
	}
	var created protocol.CreateGameResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

// push delivers rs without blocking. A full or abandoned sink means the
// session is gone; the message is dropped and logged.
func (s *Service) push(p Player, rs protocol.QueueResponse) {
	select {
	case p.Push <- rs:
	default:
		log.Printf("[MATCHMAKER] dropping %s for user %s (session gone)", rs.ResponseType(), p.ID)
	}
}

// QueueSize reports the number of players currently waiting.
func (s *Service) QueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Service) mirrorQueueSize() {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(context.Background(), "mm:queue:size", s.QueueSize(), 0).Err(); err != nil {
		log.Printf("[REDIS] queue size mirror failed: %v", err)
	}
}

func (s *Service) recordAssignment(userID, gameID model.ID) {
	if s.rdb == nil {
		return
	}
	key := "mm:assignment:" + userID.String()
	if err := s.rdb.Set(context.Background(), key, gameID.String(), assignmentTTL).Err(); err != nil {
		log.Printf("[REDIS] assignment record for %s failed: %v", userID, err)
	}
}

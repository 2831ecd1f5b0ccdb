// Package game owns live matches on the game server: the manager that
// spawns one actor per match, the router that carries socket messages to
// the right actor, and the actor's phase machine itself.
package game

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/rpsarena/backend/internal/model"
	"github.com/rpsarena/backend/internal/protocol"
)

// ErrPlayerAssigned rejects game creation when a player already sits in an
// active match.
var ErrPlayerAssigned = errors.New("a player is already in a game")

// ErrGameNotFound marks lookups of finished or unknown games.
var ErrGameNotFound = errors.New("game not found")

const actorQueueCapacity = 100

// Player is a participant handle carried on routed requests: the identity
// established at the socket handshake plus that session's push sink.
type Player struct {
	ID   model.ID
	Push chan<- protocol.GameResponse
}

// Request is one socket message on its way to a match actor.
type Request struct {
	Player Player
	Body   protocol.GameRequest
}

type match struct {
	id      model.ID
	players [2]model.ID
	toActor chan Request
}

// Manager tracks active matches and the player→match assignment. Each match
// runs on its own goroutine; the manager holds only the send handle and
// reclaims both indexes when the actor terminates.
type Manager struct {
	// ctx bounds every spawned actor; cancelling it is the broadcast
	// shutdown for all matches.
	ctx      context.Context
	reporter *Reporter

	mu         sync.Mutex
	games      map[model.ID]*match
	assignment map[model.ID]model.ID
}

// NewManager builds a manager whose actors live within ctx. reporter may be
// nil to skip result reporting.
func NewManager(ctx context.Context, reporter *Reporter) *Manager {
	return &Manager{
		ctx:        ctx,
		reporter:   reporter,
		games:      make(map[model.ID]*match),
		assignment: make(map[model.ID]model.ID),
	}
}

// CreateGame allocates a match id, records both assignments, and spawns the
// actor. Either player already being assigned fails the whole request.
func (m *Manager) CreateGame(players [2]model.ID, gamesToWin uint8) (model.ID, error) {
	m.mu.Lock()
	if _, ok := m.assignment[players[0]]; ok {
		m.mu.Unlock()
		return model.NilID, ErrPlayerAssigned
	}
	if _, ok := m.assignment[players[1]]; ok {
		m.mu.Unlock()
		return model.NilID, ErrPlayerAssigned
	}
	id := model.NewID()
	mt := &match{
		id:      id,
		players: players,
		toActor: make(chan Request, actorQueueCapacity),
	}
	m.games[id] = mt
	m.assignment[players[0]] = id
	m.assignment[players[1]] = id
	m.mu.Unlock()

	go m.runMatch(mt, gamesToWin)
	log.Printf("[MANAGER] created game %s (%s vs %s, first to %d)", id, players[0], players[1], gamesToWin)
	return id, nil
}

// runMatch hosts one actor, reclaims the indexes when it terminates, and
// reports the final score if the match ran to completion.
func (m *Manager) runMatch(mt *match, gamesToWin uint8) {
	a := newActor(mt.id, mt.players, gamesToWin)
	score, completed := a.run(m.ctx, mt.toActor)

	m.mu.Lock()
	delete(m.games, mt.id)
	delete(m.assignment, mt.players[0])
	delete(m.assignment, mt.players[1])
	m.mu.Unlock()

	if !completed {
		log.Printf("[MANAGER] game %s shut down before completing", mt.id)
		return
	}
	log.Printf("[MANAGER] game %s finished %d:%d", mt.id, score[0], score[1])
	if m.reporter != nil {
		m.reporter.Report(m.ctx, mt.id, score)
	}
}

// Lookup returns the players of an active game.
func (m *Manager) Lookup(gameID model.ID) ([2]model.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.games[gameID]
	if !ok {
		return [2]model.ID{}, ErrGameNotFound
	}
	return mt.players, nil
}

// ActiveGames reports the number of live matches.
func (m *Manager) ActiveGames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

// Assigned reports whether a player currently sits in a match.
func (m *Manager) Assigned(playerID model.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.assignment[playerID]
	return ok
}

// RunRouter consumes the socket-facing request channel until ctx ends.
func (m *Manager) RunRouter(ctx context.Context, requests <-chan Request) {
	log.Printf("[ROUTER] started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[ROUTER] stopped")
			return
		case req := <-requests:
			m.route(req)
		}
	}
}

// route forwards one request to its player's actor. Every miss is a race
// with match termination or a client talking out of turn; both are dropped
// with a warning.
func (m *Manager) route(req Request) {
	m.mu.Lock()
	gameID, ok := m.assignment[req.Player.ID]
	var mt *match
	if ok {
		mt = m.games[gameID]
	}
	m.mu.Unlock()

	if !ok {
		log.Printf("[ROUTER] player %s has no assigned game, dropping %s", req.Player.ID, req.Body.RequestType())
		return
	}
	if mt == nil {
		log.Printf("[ROUTER] game %s already gone, dropping %s from %s", gameID, req.Body.RequestType(), req.Player.ID)
		return
	}
	select {
	case mt.toActor <- req:
	default:
		log.Printf("[ROUTER] actor for game %s not accepting, dropping %s from %s", gameID, req.Body.RequestType(), req.Player.ID)
	}
}

package game

import (
	"context"
	"log"

	"github.com/rpsarena/backend/internal/model"
	"github.com/rpsarena/backend/internal/protocol"
)

type phase int

const (
	phaseWaiting phase = iota
	phasePendingMoves
	phaseDone
)

// seat is one player's slot in a match: the push sink captured at join time
// and their running win count.
type seat struct {
	push chan<- protocol.GameResponse
	wins uint8
}

// actor is the state of one match. It lives on exactly one goroutine; all
// mutation is local, so none of this needs locking.
type actor struct {
	id         model.ID
	players    [2]model.ID
	gamesToWin uint8

	phase        phase
	seats        map[model.ID]*seat
	moves        map[model.ID]model.Move
	roundsPlayed uint8
	draws        uint8
}

func newActor(id model.ID, players [2]model.ID, gamesToWin uint8) *actor {
	return &actor{
		id:         id,
		players:    players,
		gamesToWin: gamesToWin,
		phase:      phaseWaiting,
		seats:      make(map[model.ID]*seat),
		moves:      make(map[model.ID]model.Move),
	}
}

// run processes routed requests until the match completes or ctx cancels.
// completed is false on shutdown; score is in player order.
func (a *actor) run(ctx context.Context, from <-chan Request) (score [2]uint32, completed bool) {
	log.Printf("[GAME %s] started (%s vs %s, first to %d)", a.id, a.players[0], a.players[1], a.gamesToWin)
	for {
		select {
		case <-ctx.Done():
			return [2]uint32{}, false
		case req := <-from:
			a.update(req)
			if a.phase == phaseDone {
				return a.score(), true
			}
		}
	}
}

func (a *actor) update(req Request) {
	switch a.phase {
	case phaseWaiting:
		a.handleJoin(req)
	case phasePendingMoves:
		a.handleMove(req)
	case phaseDone:
		log.Printf("[GAME %s] request from %s after match end", a.id, req.Player.ID)
	}
}

// handleJoin seats a joining participant. Once both are seated each gets
// GameJoined before PendingMove, and moves are open.
func (a *actor) handleJoin(req Request) {
	if _, ok := req.Body.(protocol.JoinGame); !ok {
		log.Printf("[GAME %s] got %s while waiting for players", a.id, req.Body.RequestType())
		return
	}
	id := req.Player.ID
	if !a.participant(id) {
		log.Printf("[GAME %s] join from unknown player %s", a.id, id)
		return
	}
	if _, ok := a.seats[id]; ok {
		log.Printf("[GAME %s] duplicate join from %s", a.id, id)
		return
	}
	a.seats[id] = &seat{push: req.Player.Push}
	a.send(id, protocol.GameJoined{})

	if len(a.seats) == 2 {
		log.Printf("[GAME %s] both players seated", a.id)
		for _, pid := range a.players {
			a.send(pid, protocol.PendingMove{})
		}
		a.phase = phasePendingMoves
	}
}

// handleMove records one move; the round is evaluated the moment the second
// move lands, so outside that instant at most one move is pending.
func (a *actor) handleMove(req Request) {
	mv, ok := req.Body.(protocol.Move)
	if !ok {
		log.Printf("[GAME %s] got %s while pending moves", a.id, req.Body.RequestType())
		return
	}
	id := req.Player.ID
	if _, ok := a.seats[id]; !ok {
		log.Printf("[GAME %s] move from unseated player %s", a.id, id)
		return
	}
	if _, ok := a.moves[id]; ok {
		log.Printf("[GAME %s] player %s already moved this round", a.id, id)
		return
	}
	a.moves[id] = mv.Value
	if len(a.moves) < 2 {
		return
	}
	a.evaluateRound()
}

func (a *actor) evaluateRound() {
	m1, m2 := a.moves[a.players[0]], a.moves[a.players[1]]
	a.moves = make(map[model.ID]model.Move)
	a.roundsPlayed++

	wins, decided := m1.Beats(m2)
	if !decided {
		// Drawn rounds count toward the total but are not announced and
		// nobody is re-prompted; both players simply move again.
		a.draws++
		log.Printf("[GAME %s] round %d drawn on %s", a.id, a.roundsPlayed, m1)
		return
	}

	winner, loser := a.players[1], a.players[0]
	winnerMove, loserMove := m2, m1
	if wins {
		winner, loser = a.players[0], a.players[1]
		winnerMove, loserMove = m1, m2
	}
	a.seats[winner].wins++
	log.Printf("[GAME %s] round %d: %s (%s) beats %s (%s)", a.id, a.roundsPlayed, winner, winnerMove, loser, loserMove)
	a.send(winner, protocol.RoundResult{Result: model.OutcomeWin, OtherMove: loserMove})
	a.send(loser, protocol.RoundResult{Result: model.OutcomeLoss, OtherMove: winnerMove})

	if a.seats[winner].wins >= a.gamesToWin {
		a.send(winner, protocol.MatchResult{Result: model.OutcomeWin, Wins: a.seats[winner].wins, Total: a.roundsPlayed})
		a.send(loser, protocol.MatchResult{Result: model.OutcomeLoss, Wins: a.seats[loser].wins, Total: a.roundsPlayed})
		a.phase = phaseDone
	}
}

func (a *actor) participant(id model.ID) bool {
	return id == a.players[0] || id == a.players[1]
}

// send delivers rs to the player's session without blocking. A gone session
// is logged and the match plays on; games_to_win still terminates it.
func (a *actor) send(id model.ID, rs protocol.GameResponse) {
	st, ok := a.seats[id]
	if !ok {
		return
	}
	select {
	case st.push <- rs:
	default:
		log.Printf("[GAME %s] dropping %s for player %s (session gone)", a.id, rs.ResponseType(), id)
	}
}

func (a *actor) score() [2]uint32 {
	var score [2]uint32
	for i, id := range a.players {
		if st, ok := a.seats[id]; ok {
			score[i] = uint32(st.wins)
		}
	}
	return score
}

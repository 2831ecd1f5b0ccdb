package model

import "fmt"

// Move is one hand shape in a round.
type Move string

const (
	MoveRock     Move = "Rock"
	MovePaper    Move = "Paper"
	MoveScissors Move = "Scissors"
)

// Valid reports whether m is one of the three known moves.
func (m Move) Valid() bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	}
	return false
}

// Beats compares m against other. decided is false when the moves tie;
// otherwise wins reports whether m beats other along the canonical cycle
// Rock > Scissors > Paper > Rock.
func (m Move) Beats(other Move) (wins, decided bool) {
	if m == other {
		return false, false
	}
	switch {
	case m == MoveRock && other == MoveScissors,
		m == MoveScissors && other == MovePaper,
		m == MovePaper && other == MoveRock:
		return true, true
	}
	return false, true
}

// Outcome is a round or match result from one player's perspective.
type Outcome string

const (
	OutcomeWin  Outcome = "Win"
	OutcomeLoss Outcome = "Loss"
	OutcomeDraw Outcome = "Draw"
)

// ParseMove validates a wire move value.
func ParseMove(s string) (Move, error) {
	m := Move(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown move %q", s)
	}
	return m, nil
}

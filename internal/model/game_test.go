package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveBeatsCycle(t *testing.T) {
	cases := []struct {
		m, other Move
		wins     bool
		decided  bool
	}{
		{MoveRock, MoveScissors, true, true},
		{MoveScissors, MovePaper, true, true},
		{MovePaper, MoveRock, true, true},
		{MoveScissors, MoveRock, false, true},
		{MovePaper, MoveScissors, false, true},
		{MoveRock, MovePaper, false, true},
		{MoveRock, MoveRock, false, false},
		{MovePaper, MovePaper, false, false},
		{MoveScissors, MoveScissors, false, false},
	}
	for _, tc := range cases {
		wins, decided := tc.m.Beats(tc.other)
		assert.Equal(t, tc.wins, wins, "%s vs %s", tc.m, tc.other)
		assert.Equal(t, tc.decided, decided, "%s vs %s", tc.m, tc.other)
	}
}

func TestParseMove(t *testing.T) {
	for _, s := range []string{"Rock", "Paper", "Scissors"} {
		m, err := ParseMove(s)
		require.NoError(t, err)
		assert.True(t, m.Valid())
	}

	for _, s := range []string{"", "rock", "Lizard", "ROCK"} {
		_, err := ParseMove(s)
		assert.Error(t, err, "move %q should be rejected", s)
	}
}

func TestParseID(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}

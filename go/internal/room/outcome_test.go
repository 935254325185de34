package room

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		a, b Move
		want Verdict
	}{
		{Rock, Scissors, AWins},
		{Scissors, Paper, AWins},
		{Paper, Rock, AWins},
		{Scissors, Rock, BWins},
		{Paper, Scissors, BWins},
		{Rock, Paper, BWins},
		{Rock, Rock, Draw},
		{Paper, Paper, Draw},
		{Scissors, Scissors, Draw},
	}

	for _, tt := range tests {
		t.Run(string(tt.a)+"_vs_"+string(tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.a, tt.b))
		})
	}
}

func TestResolve_AntiSymmetric(t *testing.T) {
	moves := []Move{Rock, Paper, Scissors}
	for _, a := range moves {
		for _, b := range moves {
			ab, ba := Resolve(a, b), Resolve(b, a)
			if a == b {
				assert.Equal(t, Draw, ab)
				continue
			}
			assert.NotEqual(t, Draw, ab, "%s vs %s", a, b)
			assert.Equal(t, ab == AWins, ba == BWins, "%s vs %s", a, b)
		}
	}
}

func TestParseMove(t *testing.T) {
	m, err := ParseMove("paper")
	require.NoError(t, err)
	assert.Equal(t, Paper, m)

	for _, bad := range []string{"", "ROCK", "lizard", "spock"} {
		_, err := ParseMove(bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidMove), bad)
	}
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "draw", Outcome{Draw: true}.Label(""))
	assert.Equal(t, "alice_won", Outcome{WinnerID: 1}.Label("alice"))
}

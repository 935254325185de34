package room

import (
	"fmt"

	"github.com/mcdev12/jokenpo/go/internal/models"
)

// Move is one of the three symbols a player can submit.
type Move string

const (
	Rock     Move = "rock"
	Paper    Move = "paper"
	Scissors Move = "scissors"
)

// ParseMove validates s as a Move.
func ParseMove(s string) (Move, error) {
	switch m := Move(s); m {
	case Rock, Paper, Scissors:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMove, s)
}

// beats maps a move to the move it defeats.
var beats = map[Move]Move{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// Verdict is the result of one round between player A and player B.
type Verdict int

const (
	Draw Verdict = iota
	AWins
	BWins
)

func (v Verdict) String() string {
	switch v {
	case AWins:
		return "a_wins"
	case BWins:
		return "b_wins"
	default:
		return "draw"
	}
}

// Resolve decides a round. Both moves must be valid.
func Resolve(a, b Move) Verdict {
	if a == b {
		return Draw
	}
	if beats[a] == b {
		return AWins
	}
	return BWins
}

// Outcome is the structured result of a concluded round.
type Outcome struct {
	Draw     bool
	WinnerID int64
}

// Label is the presentation string for GAME_RESULT.result.
func (o Outcome) Label(winnerName string) string {
	if o.Draw {
		return "draw"
	}
	return winnerName + "_won"
}

func (o Outcome) stored() models.RoomStatus {
	if o.Draw {
		return models.RoomStatusDraw
	}
	return models.RoomStatusWon(o.WinnerID)
}

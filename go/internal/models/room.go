package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RoomStatus is the status string stored in the rooms table.
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting"
	RoomStatusPlaying RoomStatus = "playing"
	RoomStatusDraw    RoomStatus = "draw"
	RoomStatusClosed  RoomStatus = "closed"

	wonPrefix = "won:"
)

// RoomStatusWon is the stored status of a round won by winnerID.
func RoomStatusWon(winnerID int64) RoomStatus {
	return RoomStatus(fmt.Sprintf("%s%d", wonPrefix, winnerID))
}

// IsConcluded reports whether the status records a finished round.
func (s RoomStatus) IsConcluded() bool {
	return s == RoomStatusDraw || strings.HasPrefix(string(s), wonPrefix)
}

// WinnerID returns the winner of a concluded round, if any.
func (s RoomStatus) WinnerID() (int64, bool) {
	rest, ok := strings.CutPrefix(string(s), wonPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Room is the durable row of a game room.
type Room struct {
	ID         int64      `json:"id"`
	Code       string     `json:"code"`
	OwnerID    int64      `json:"owner_id"`
	OpponentID *int64     `json:"opponent_id,omitempty"`
	Status     RoomStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

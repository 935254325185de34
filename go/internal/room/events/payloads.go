package events

import (
	"time"
)

// Event types published on rooms.events.<Type>
const (
	TypeRoomCreated   = "RoomCreated"
	TypePlayerJoined  = "PlayerJoined"
	TypeRoundResolved = "RoundResolved"
	TypeRoundStarted  = "RoundStarted"
	TypeRoomClosed    = "RoomClosed"
	TypeRoomEvicted   = "RoomEvicted"
)

// RoomCreatedPayload is the payload for a RoomCreated event
type RoomCreatedPayload struct {
	RoomCode  string    `json:"room_code"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerJoinedPayload is the payload for a PlayerJoined event
type PlayerJoinedPayload struct {
	RoomCode string    `json:"room_code"`
	UserID   int64     `json:"user_id"`
	Seat     string    `json:"seat"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

// RoundResolvedPayload is the payload for a RoundResolved event
type RoundResolvedPayload struct {
	RoomCode   string            `json:"room_code"`
	Round      int               `json:"round"`
	Draw       bool              `json:"draw"`
	WinnerID   *int64            `json:"winner_id,omitempty"`
	Choices    map[string]string `json:"choices"`
	ResolvedAt time.Time         `json:"resolved_at"`
}

// RoundStartedPayload is the payload for a RoundStarted event
type RoundStartedPayload struct {
	RoomCode  string    `json:"room_code"`
	Round     int       `json:"round"`
	StartedAt time.Time `json:"started_at"`
}

// RoomClosedPayload is the payload for a RoomClosed event
type RoomClosedPayload struct {
	RoomCode string    `json:"room_code"`
	ClosedBy int64     `json:"closed_by"`
	Rounds   int       `json:"rounds"`
	ClosedAt time.Time `json:"closed_at"`
}

// RoomEvictedPayload is the payload for a RoomEvicted event
type RoomEvictedPayload struct {
	RoomCode  string    `json:"room_code"`
	IdleFor   string    `json:"idle_for"`
	EvictedAt time.Time `json:"evicted_at"`
}

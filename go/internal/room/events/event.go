package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one domain event about a room.
type Event struct {
	ID        uuid.UUID
	RoomCode  string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// New builds an Event with a fresh id and the JSON encoding of payload.
func New(roomCode, eventType string, payload any, now time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		RoomCode:  roomCode,
		Type:      eventType,
		Payload:   data,
		CreatedAt: now,
	}, nil
}

// Publisher delivers an event to the outside world.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

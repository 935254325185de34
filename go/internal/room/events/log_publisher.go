package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the log. Used when NATS is not configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) error {
	log.Debug().
		Str("event_type", event.Type).
		Str("room_code", event.RoomCode).
		RawJSON("payload", event.Payload).
		Msg("room event")
	return nil
}

func (LogPublisher) Close() error { return nil }

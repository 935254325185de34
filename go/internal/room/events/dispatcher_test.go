package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	events   []Event
	failures int
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func testConfig() DispatcherConfig {
	return DispatcherConfig{QueueSize: 4, MaxRetries: 2, RetryDelay: time.Millisecond, PublishTimeout: time.Second}
}

func TestNew(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	evt, err := New("ABCDE", TypeRoundStarted, RoundStartedPayload{RoomCode: "ABCDE", Round: 2, StartedAt: now}, now)
	require.NoError(t, err)

	assert.Equal(t, "ABCDE", evt.RoomCode)
	assert.Equal(t, TypeRoundStarted, evt.Type)
	assert.Equal(t, now, evt.CreatedAt)
	assert.JSONEq(t, `{"room_code":"ABCDE","round":2,"started_at":"2025-01-01T00:00:00Z"}`, string(evt.Payload))
}

func TestDispatcher_PublishesWithRetry(t *testing.T) {
	pub := &recordingPublisher{failures: 2}
	d := NewDispatcher(pub, testConfig())
	require.NoError(t, d.Start(context.Background()))

	evt, err := New("ABCDE", TypeRoomCreated, RoomCreatedPayload{RoomCode: "ABCDE", OwnerID: 1}, time.Now())
	require.NoError(t, err)
	d.Emit(evt)

	require.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, evt.ID, pub.published()[0].ID)
	require.NoError(t, d.Stop())
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, testConfig())

	for i := 0; i < 3; i++ {
		evt, err := New("ABCDE", TypeRoomClosed, RoomClosedPayload{RoomCode: "ABCDE"}, time.Now())
		require.NoError(t, err)
		d.Emit(evt)
	}
	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Stop())

	assert.Len(t, pub.published(), 3)
}

func TestDispatcher_StartTwice(t *testing.T) {
	d := NewDispatcher(&recordingPublisher{}, testConfig())
	require.NoError(t, d.Start(context.Background()))
	assert.Error(t, d.Start(context.Background()))
	require.NoError(t, d.Stop())
	assert.Error(t, d.Stop())
}

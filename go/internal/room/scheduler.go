package room

import (
	"context"

	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/mcdev12/jokenpo/go/internal/room/events"
	"github.com/rs/zerolog/log"
)

// scheduleCooldownLocked arms the round-advance timer, replacing any
// pending one. Each arm bumps cooldownSeq so a stale callback that lost
// the race with Stop is ignored.
func (m *Manager) scheduleCooldownLocked(r *Room) {
	stopTimer(r.cooldown)
	r.cooldownSeq++
	seq := r.cooldownSeq
	r.cooldown = m.clock.AfterFunc(m.config.RoundCooldown, func() {
		m.advanceRound(r, seq)
	})
}

// advanceRound moves a concluded room back to playing. On a store
// failure the room stays concluded and the timer is re-armed.
func (m *Manager) advanceRound(r *Room, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gone || seq != r.cooldownSeq || r.status != StatusRoundConcluded {
		return
	}
	r.cooldown = nil

	if _, err := m.persist(context.Background(), "start_round", r.code, func(ctx context.Context) (*models.Room, error) {
		return m.store.UpdateStatus(ctx, r.code, models.RoomStatusPlaying)
	}); err != nil {
		log.Error().Err(err).Str("room_code", r.code).Msg("new round not stored, retrying after cooldown")
		m.scheduleCooldownLocked(r)
		return
	}

	r.status = StatusPlaying
	r.outcome = Outcome{}
	r.round++
	r.broadcast(newRoundMsg(r.code, r.round))

	m.emit(r.code, events.TypeRoundStarted, events.RoundStartedPayload{
		RoomCode:  r.code,
		Round:     r.round,
		StartedAt: m.clock.Now(),
	})
	log.Info().Str("room_code", r.code).Int("round", r.round).Msg("new round started")
}

// armIdleLocked starts the eviction countdown once the last live
// connection has gone. No-op when IdleTTL is disabled.
func (m *Manager) armIdleLocked(r *Room) {
	if m.config.IdleTTL <= 0 || r.gone || r.liveConns() > 0 {
		return
	}
	stopTimer(r.idle)
	r.idleSeq++
	seq := r.idleSeq
	r.idle = m.clock.AfterFunc(m.config.IdleTTL, func() {
		m.evictIdle(r, seq)
	})
}

func (m *Manager) cancelIdleLocked(r *Room) {
	stopTimer(r.idle)
	r.idle = nil
	r.idleSeq++
}

func (m *Manager) cancelTimersLocked(r *Room) {
	stopTimer(r.cooldown)
	r.cooldown = nil
	r.cooldownSeq++
	m.cancelIdleLocked(r)
}

// evictIdle drops an unattended room from the registry. The durable row
// is left as is so a later JOIN_ROOM can hydrate it again.
func (m *Manager) evictIdle(r *Room, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gone || seq != r.idleSeq || r.liveConns() > 0 {
		return
	}
	m.cancelTimersLocked(r)
	m.unregisterLocked(r)

	m.emit(r.code, events.TypeRoomEvicted, events.RoomEvictedPayload{
		RoomCode:  r.code,
		IdleFor:   m.config.IdleTTL.String(),
		EvictedAt: m.clock.Now(),
	})
	log.Info().Str("room_code", r.code).Dur("idle_ttl", m.config.IdleTTL).Msg("idle room evicted")
}

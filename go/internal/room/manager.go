package room

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/mcdev12/jokenpo/go/internal/room/events"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// lookupAttempts bounds retries when a room leaves the registry between
// lookup and lock.
const lookupAttempts = 3

type Config struct {
	RoundCooldown  time.Duration
	IdleTTL        time.Duration // 0 keeps unattended rooms forever
	CodeLength     int
	CodeAttempts   int
	PersistTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RoundCooldown:  time.Second,
		CodeLength:     5,
		CodeAttempts:   10,
		PersistTimeout: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.RoundCooldown <= 0 {
		c.RoundCooldown = def.RoundCooldown
	}
	if c.CodeLength <= 0 {
		c.CodeLength = def.CodeLength
	}
	if c.CodeAttempts <= 0 {
		c.CodeAttempts = def.CodeAttempts
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = def.PersistTimeout
	}
	return c
}

// EventSink receives domain events after a transition commits.
type EventSink interface {
	Emit(event events.Event)
}

type discardSink struct{}

func (discardSink) Emit(events.Event) {}

type Option func(*Manager)

func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

func WithEvents(sink EventSink) Option {
	return func(m *Manager) { m.events = sink }
}

func WithMetrics(metrics MetricsCollector) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithCodeGenerator replaces the random room code source.
func WithCodeGenerator(gen func() string) Option {
	return func(m *Manager) { m.newCode = gen }
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Rooms           int            `json:"rooms"`
	LiveConnections int            `json:"live_connections"`
	ByStatus        map[Status]int `json:"by_status"`
}

// Manager owns the live room registry and is the only mutator of Room
// state. Lock order is always room before registry.
type Manager struct {
	store   Store
	clock   clockwork.Clock
	events  EventSink
	metrics MetricsCollector
	config  Config
	newCode func() string

	mu       sync.RWMutex
	rooms    map[string]*Room
	reserved map[string]struct{}

	hydrating singleflight.Group
}

func NewManager(store Store, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		clock:    clockwork.NewRealClock(),
		events:   discardSink{},
		metrics:  NoOpMetricsCollector{},
		config:   cfg.withDefaults(),
		rooms:    make(map[string]*Room),
		reserved: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.newCode == nil {
		m.newCode = randomCode(m.config.CodeLength)
	}
	return m
}

func randomCode(n int) func() string {
	return func() string {
		b := make([]byte, n)
		for i := range b {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		return string(b)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Connect binds a freshly authenticated connection: it either resumes a
// seat the identity already holds or welcomes it as a new player.
func (m *Manager) Connect(conn Conn) {
	if m.AttemptReconnection(conn) {
		return
	}
	conn.Send(welcomeMsg())
}

// HandleMessage decodes and applies one inbound frame. Any failure is
// reported to conn as ERROR and never affects other rooms.
func (m *Manager) HandleMessage(ctx context.Context, conn Conn, data []byte) {
	msgType := MessageType("UNKNOWN")
	cmd, err := DecodeCommand(data)
	if err == nil {
		msgType = cmd.Type()
		err = m.Dispatch(ctx, conn, cmd)
	}

	if err == nil {
		m.metrics.RecordCommand(msgType, "")
		return
	}

	kind := KindOf(err)
	m.metrics.RecordCommand(msgType, kind)
	ev := log.Debug()
	if kind == KindInternal {
		ev = log.Error()
	}
	ev.Err(err).
		Str("type", string(msgType)).
		Int64("user_id", conn.Identity().ID).
		Str("conn_id", conn.ID()).
		Msg("command rejected")
	conn.Send(ErrorMsg(err))
}

// Dispatch routes a decoded command.
func (m *Manager) Dispatch(ctx context.Context, conn Conn, cmd Command) error {
	switch c := cmd.(type) {
	case CreateRoomCommand:
		return m.CreateRoom(ctx, conn)
	case JoinRoomCommand:
		return m.JoinRoom(ctx, conn, c.RoomCode)
	case MakeChoiceCommand:
		return m.MakeChoice(ctx, conn, c.RoomCode, c.Choice)
	case CloseRoomCommand:
		return m.CloseRoom(ctx, conn, c.RoomCode)
	default:
		return ErrUnknownMessage
	}
}

// CreateRoom allocates a code, persists a waiting room owned by conn's
// identity and registers it.
func (m *Manager) CreateRoom(ctx context.Context, conn Conn) error {
	id := conn.Identity()

	for attempt := 0; attempt < m.config.CodeAttempts; attempt++ {
		code := m.newCode()
		if !m.reserve(code) {
			continue
		}

		row, err := m.persist(ctx, "create_room", code, func(ctx context.Context) (*models.Room, error) {
			return m.store.CreateRoom(ctx, code, id.ID)
		})
		if errors.Is(err, ErrCodeTaken) {
			m.release(code)
			continue
		}
		if err != nil {
			m.release(code)
			return err
		}

		r := newRoom(row)
		r.mu.Lock()
		r.names[id.ID] = id.Username
		r.conns[id.ID] = conn
		m.register(r)

		prev := conn.RoomCode()
		conn.SetRoomCode(code)
		conn.Send(roomCreatedMsg(r.info()))
		m.emit(code, events.TypeRoomCreated, events.RoomCreatedPayload{
			RoomCode:  code,
			OwnerID:   id.ID,
			CreatedAt: row.CreatedAt,
		})
		r.mu.Unlock()

		log.Info().
			Str("room_code", code).
			Int64("owner_id", id.ID).
			Str("owner", id.Username).
			Int("attempt", attempt+1).
			Msg("room created")

		m.leavePrevious(conn, prev, code)
		return nil
	}

	log.Warn().Int64("user_id", id.ID).Int("attempts", m.config.CodeAttempts).Msg("room code space exhausted")
	return ErrCodeGenerationFailed
}

// JoinRoom seats conn's identity in code, hydrating the room from the
// store if it is not live. A player already seated there is reconnected.
func (m *Manager) JoinRoom(ctx context.Context, conn Conn, code string) error {
	code = normalizeCode(code)
	if code == "" {
		return ErrMissingRoomCode
	}

	r, err := m.acquire(ctx, code, true)
	if err != nil {
		return err
	}
	id := conn.Identity()

	if r.seated(id.ID) {
		if bound, ok := r.conns[id.ID]; ok && bound.ID() == conn.ID() {
			r.mu.Unlock()
			return ErrAlreadySeated
		}
		prev := conn.RoomCode()
		m.reconnectLocked(r, conn)
		r.mu.Unlock()
		m.leavePrevious(conn, prev, code)
		return nil
	}

	if r.full() {
		r.mu.Unlock()
		return ErrRoomFull
	}

	seat := "opponent"
	next := StatusPlaying
	if r.ownerID == 0 {
		seat = "owner"
		if r.opponentID == 0 {
			next = StatusWaiting
		}
	}
	stored := models.RoomStatusPlaying
	if next == StatusWaiting {
		stored = models.RoomStatusWaiting
	}

	_, err = m.persist(ctx, "fill_seat", code, func(ctx context.Context) (*models.Room, error) {
		if seat == "owner" {
			return m.store.FillOwnerSeat(ctx, code, id.ID, stored)
		}
		return m.store.FillSecondSeat(ctx, code, id.ID, stored)
	})
	if err != nil {
		r.mu.Unlock()
		return err
	}

	if seat == "owner" {
		r.ownerID = id.ID
	} else {
		r.opponentID = id.ID
	}
	r.names[id.ID] = id.Username
	m.bindLocked(r, conn)
	prev := conn.RoomCode()
	conn.SetRoomCode(code)

	started := next == StatusPlaying
	r.status = next
	if started && r.round == 0 {
		r.round = 1
	}

	r.broadcast(playerJoinedMsg(r.info()))
	if started {
		r.broadcast(gameStartMsg(code, r.round))
	}
	m.emit(code, events.TypePlayerJoined, events.PlayerJoinedPayload{
		RoomCode: code,
		UserID:   id.ID,
		Seat:     seat,
		Status:   string(r.status),
		JoinedAt: m.clock.Now(),
	})
	r.mu.Unlock()

	log.Info().
		Str("room_code", code).
		Int64("user_id", id.ID).
		Str("seat", seat).
		Str("status", string(next)).
		Msg("player joined room")

	m.leavePrevious(conn, prev, code)
	return nil
}

// MakeChoice records a move for the current round and resolves the round
// once both seats have chosen. An empty code falls back to the
// connection's current room.
func (m *Manager) MakeChoice(ctx context.Context, conn Conn, code, choice string) error {
	code = normalizeCode(code)
	if code == "" {
		code = conn.RoomCode()
	}
	if code == "" {
		return ErrMissingRoomCode
	}

	r, err := m.acquire(ctx, code, false)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	id := conn.Identity().ID
	if !r.seated(id) {
		return ErrNotSeated
	}
	if r.status != StatusPlaying {
		return ErrWrongState
	}
	move, err := ParseMove(choice)
	if err != nil {
		return err
	}
	if _, dup := r.choices[id]; dup {
		return ErrDuplicateChoice
	}

	r.choices[id] = move
	other := r.other(id)
	if _, ok := r.choices[other]; !ok {
		r.send(id, choiceMadeMsg(move))
		r.send(other, opponentChoiceMadeMsg())
		log.Debug().Str("room_code", code).Int64("user_id", id).Msg("choice recorded")
		return nil
	}

	return m.resolveRoundLocked(ctx, r, id)
}

// resolveRoundLocked concludes the round completed by sender. The
// sender's choice is withdrawn if the result cannot be stored.
func (m *Manager) resolveRoundLocked(ctx context.Context, r *Room, sender int64) error {
	ownerMove, oppMove := r.choices[r.ownerID], r.choices[r.opponentID]

	var outcome Outcome
	switch Resolve(ownerMove, oppMove) {
	case Draw:
		outcome.Draw = true
	case AWins:
		outcome.WinnerID = r.ownerID
	case BWins:
		outcome.WinnerID = r.opponentID
	}

	if _, err := m.persist(ctx, "conclude_round", r.code, func(ctx context.Context) (*models.Room, error) {
		return m.store.UpdateStatus(ctx, r.code, outcome.stored())
	}); err != nil {
		delete(r.choices, sender)
		return err
	}

	r.status = StatusRoundConcluded
	r.outcome = outcome

	r.send(sender, choiceMadeMsg(r.choices[sender]))
	r.send(r.other(sender), opponentChoiceMadeMsg())
	r.broadcast(gameResultMsg(r.resultPayload()))

	choices := make(map[string]string, len(r.choices))
	for _, uid := range r.sortedChoiceIDs() {
		choices[userKey(uid)] = string(r.choices[uid])
	}
	payload := events.RoundResolvedPayload{
		RoomCode:   r.code,
		Round:      r.round,
		Draw:       outcome.Draw,
		Choices:    choices,
		ResolvedAt: m.clock.Now(),
	}
	label := "draw"
	if !outcome.Draw {
		winner := outcome.WinnerID
		payload.WinnerID = &winner
		label = "win"
	}
	m.emit(r.code, events.TypeRoundResolved, payload)
	m.metrics.RecordRoundResolved(label)

	log.Info().
		Str("room_code", r.code).
		Int("round", r.round).
		Bool("draw", outcome.Draw).
		Int64("winner_id", outcome.WinnerID).
		Msg("round resolved")

	r.choices = make(map[int64]Move)
	m.scheduleCooldownLocked(r)
	return nil
}

func (r *Room) resultPayload() GameResultPayload {
	choices := make(map[string]ChoiceInfo, len(r.choices))
	for uid, mv := range r.choices {
		choices[userKey(uid)] = ChoiceInfo{Username: r.name(uid), Choice: mv, Chosen: true}
	}
	p := GameResultPayload{
		RoomCode: r.code,
		Round:    r.round,
		Choices:  choices,
	}
	if r.outcome.Draw {
		p.Result = r.outcome.Label("")
		return p
	}
	winnerID := r.outcome.WinnerID
	winnerName := r.name(winnerID)
	p.Result = r.outcome.Label(winnerName)
	p.WinnerID = &winnerID
	p.WinnerUsername = &winnerName
	return p
}

// CloseRoom ends the room. Only the owner may close it.
func (m *Manager) CloseRoom(ctx context.Context, conn Conn, code string) error {
	code = normalizeCode(code)
	if code == "" {
		code = conn.RoomCode()
	}
	if code == "" {
		return ErrMissingRoomCode
	}

	r, err := m.acquire(ctx, code, true)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	id := conn.Identity().ID
	if id != r.ownerID {
		return ErrForbidden
	}

	if _, err := m.persist(ctx, "close_room", code, func(ctx context.Context) (*models.Room, error) {
		return m.store.UpdateStatus(ctx, code, models.RoomStatusClosed)
	}); err != nil {
		return err
	}

	m.cancelTimersLocked(r)
	r.status = StatusClosed
	r.broadcast(roomClosedMsg(code))
	for _, c := range r.conns {
		if c.RoomCode() == code {
			c.SetRoomCode("")
		}
	}
	r.conns = make(map[int64]Conn)
	r.choices = make(map[int64]Move)
	m.unregisterLocked(r)

	m.emit(code, events.TypeRoomClosed, events.RoomClosedPayload{
		RoomCode: code,
		ClosedBy: id,
		Rounds:   r.round,
		ClosedAt: m.clock.Now(),
	})
	log.Info().Str("room_code", code).Int64("owner_id", id).Int("rounds", r.round).Msg("room closed")
	return nil
}

// HandleDisconnect drops conn's live binding. Seats are kept so the
// player can reconnect.
func (m *Manager) HandleDisconnect(conn Conn) {
	code := conn.RoomCode()
	if code == "" {
		return
	}
	m.detach(conn, code)
}

// AttemptReconnection rebinds conn to the newest live room in which its
// identity holds a seat without a current binding from conn.
func (m *Manager) AttemptReconnection(conn Conn) bool {
	id := conn.Identity().ID

	m.mu.RLock()
	candidates := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		candidates = append(candidates, r)
	}
	m.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].createdAt.After(candidates[j].createdAt)
	})

	for _, r := range candidates {
		r.mu.Lock()
		if r.gone || !r.seated(id) {
			r.mu.Unlock()
			continue
		}
		if bound, ok := r.conns[id]; ok && bound.ID() == conn.ID() {
			r.mu.Unlock()
			continue
		}
		prev := conn.RoomCode()
		m.reconnectLocked(r, conn)
		code := r.code
		r.mu.Unlock()
		m.leavePrevious(conn, prev, code)
		return true
	}
	return false
}

func (m *Manager) reconnectLocked(r *Room, conn Conn) {
	id := conn.Identity()
	if old, ok := r.conns[id.ID]; ok && old.ID() != conn.ID() && old.RoomCode() == r.code {
		old.SetRoomCode("")
	}
	if id.Username != "" {
		r.names[id.ID] = id.Username
	}
	m.bindLocked(r, conn)
	conn.SetRoomCode(r.code)

	conn.Send(roomStateMsg(r.snapshot(id.ID)))
	if other := r.other(id.ID); other != 0 {
		r.send(other, playerReconnectedMsg(PlayerInfo{UserID: id.ID, Username: r.name(id.ID)}))
	}

	log.Info().
		Str("room_code", r.code).
		Int64("user_id", id.ID).
		Str("conn_id", conn.ID()).
		Str("status", string(r.status)).
		Msg("player reconnected")
}

func (m *Manager) bindLocked(r *Room, conn Conn) {
	r.conns[conn.Identity().ID] = conn
	m.cancelIdleLocked(r)
}

// leavePrevious releases conn's binding in the room it was in before
// moving to code.
func (m *Manager) leavePrevious(conn Conn, prev, code string) {
	if prev == "" || prev == code {
		return
	}
	m.detach(conn, prev)
}

func (m *Manager) detach(conn Conn, code string) {
	m.mu.RLock()
	r, ok := m.rooms[code]
	m.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gone {
		return
	}

	id := conn.Identity().ID
	bound, ok := r.conns[id]
	if !ok || bound.ID() != conn.ID() {
		return
	}
	delete(r.conns, id)

	if other := r.other(id); other != 0 {
		r.send(other, opponentDisconnectedMsg(PlayerInfo{UserID: id, Username: r.name(id)}, r.players()))
	}
	m.armIdleLocked(r)

	log.Info().
		Str("room_code", code).
		Int64("user_id", id).
		Str("conn_id", conn.ID()).
		Int("live_conns", r.liveConns()).
		Msg("player disconnected")
}

// Stats counts rooms and live bindings.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	s := Stats{Rooms: len(rooms), ByStatus: make(map[Status]int)}
	for _, r := range rooms {
		r.mu.Lock()
		s.LiveConnections += r.liveConns()
		s.ByStatus[r.status]++
		r.mu.Unlock()
	}
	return s
}

// Shutdown cancels every pending timer. Rooms stay registered.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		r.mu.Lock()
		m.cancelTimersLocked(r)
		r.mu.Unlock()
	}
	log.Info().Int("rooms", len(rooms)).Msg("room manager stopped")
}

// acquire returns the live room for code with its lock held.
func (m *Manager) acquire(ctx context.Context, code string, hydrate bool) (*Room, error) {
	for attempt := 0; attempt < lookupAttempts; attempt++ {
		r, err := m.lookup(ctx, code, hydrate)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if !r.gone {
			return r, nil
		}
		r.mu.Unlock()
	}
	return nil, ErrNotFound
}

func (m *Manager) lookup(ctx context.Context, code string, hydrate bool) (*Room, error) {
	m.mu.RLock()
	r, ok := m.rooms[code]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}
	if !hydrate {
		return nil, ErrNotFound
	}

	v, err, _ := m.hydrating.Do(code, func() (interface{}, error) {
		return m.hydrate(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Room), nil
}

// hydrate rebuilds a live room from its durable row.
func (m *Manager) hydrate(ctx context.Context, code string) (*Room, error) {
	m.mu.RLock()
	r, ok := m.rooms[code]
	_, creating := m.reserved[code]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}
	if creating {
		return nil, ErrNotFound
	}

	row, err := m.persist(ctx, "find_room", code, func(ctx context.Context) (*models.Room, error) {
		return m.store.FindByCode(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	if row.Status == models.RoomStatusClosed {
		return nil, ErrClosed
	}

	r = newRoom(row)
	r.mu.Lock()
	defer r.mu.Unlock()

	m.mu.Lock()
	if existing, ok := m.rooms[code]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.rooms[code] = r
	n := len(m.rooms)
	m.mu.Unlock()
	m.metrics.SetActiveRooms(n)

	if r.status == StatusRoundConcluded {
		m.scheduleCooldownLocked(r)
	}
	m.armIdleLocked(r)

	log.Info().
		Str("room_code", code).
		Str("stored_status", string(row.Status)).
		Str("status", string(r.status)).
		Msg("room hydrated from store")
	return r, nil
}

func (m *Manager) reserve(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, live := m.rooms[code]; live {
		return false
	}
	if _, taken := m.reserved[code]; taken {
		return false
	}
	m.reserved[code] = struct{}{}
	return true
}

func (m *Manager) release(code string) {
	m.mu.Lock()
	delete(m.reserved, code)
	m.mu.Unlock()
}

func (m *Manager) register(r *Room) {
	m.mu.Lock()
	delete(m.reserved, r.code)
	m.rooms[r.code] = r
	n := len(m.rooms)
	m.mu.Unlock()
	m.metrics.SetActiveRooms(n)
}

// unregisterLocked evicts r from the registry. r.mu must be held.
func (m *Manager) unregisterLocked(r *Room) {
	r.gone = true
	m.mu.Lock()
	if m.rooms[r.code] == r {
		delete(m.rooms, r.code)
	}
	n := len(m.rooms)
	m.mu.Unlock()
	m.metrics.SetActiveRooms(n)
}

// persist runs a store call under the configured timeout and classifies
// unexpected failures as persistence errors.
func (m *Manager) persist(ctx context.Context, op, code string, fn func(context.Context) (*models.Room, error)) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, m.config.PersistTimeout)
	defer cancel()

	row, err := fn(ctx)
	if err == nil {
		return row, nil
	}
	if errors.Is(err, ErrCodeTaken) || KindOf(err) != KindInternal {
		return nil, err
	}

	m.metrics.RecordPersistenceFailure(op)
	log.Error().Err(err).Str("op", op).Str("room_code", code).Msg("room persistence failed")
	return nil, persistenceError(op, err)
}

func (m *Manager) emit(code, eventType string, payload any) {
	evt, err := events.New(code, eventType, payload, m.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("room_code", code).Str("event_type", eventType).Msg("failed to build room event")
		return
	}
	m.events.Emit(evt)
}

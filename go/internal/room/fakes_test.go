package room

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/mcdev12/jokenpo/go/internal/room/events"
)

var connSeq atomic.Int64

type fakeConn struct {
	id       string
	identity models.Identity

	mu   sync.Mutex
	room string
	msgs []Outbound
}

func newFakeConn(userID int64, username string) *fakeConn {
	return &fakeConn{
		id:       fmt.Sprintf("%s-%d", username, connSeq.Add(1)),
		identity: models.Identity{ID: userID, Username: username},
	}
}

func (c *fakeConn) ID() string                { return c.id }
func (c *fakeConn) Identity() models.Identity { return c.identity }

func (c *fakeConn) Send(msg Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *fakeConn) RoomCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *fakeConn) SetRoomCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = code
}

func (c *fakeConn) messages() []Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Outbound(nil), c.msgs...)
}

func (c *fakeConn) types() []MessageType {
	var out []MessageType
	for _, m := range c.messages() {
		out = append(out, m.Type)
	}
	return out
}

func (c *fakeConn) count(t MessageType) int {
	n := 0
	for _, m := range c.messages() {
		if m.Type == t {
			n++
		}
	}
	return n
}

// last returns the most recent message of type t.
func (c *fakeConn) last(t MessageType) (Outbound, bool) {
	msgs := c.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == t {
			return msgs[i], true
		}
	}
	return Outbound{}, false
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

type fakeStore struct {
	mu     sync.Mutex
	rows   map[string]*models.Room
	nextID int64
	base   time.Time
	fail   map[string]error
	calls  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:  make(map[string]*models.Room),
		base:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (s *fakeStore) setFail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

func (s *fakeStore) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *fakeStore) seed(row models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	row.ID = s.nextID
	if row.CreatedAt.IsZero() {
		row.CreatedAt = s.base.Add(time.Duration(s.nextID) * time.Second)
	}
	s.rows[row.Code] = &row
}

func (s *fakeStore) row(code string) (models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[code]
	if !ok {
		return models.Room{}, false
	}
	return *r, true
}

func (s *fakeStore) begin(op string) error {
	s.calls[op]++
	return s.fail[op]
}

func (s *fakeStore) CreateRoom(_ context.Context, code string, ownerID int64) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("create"); err != nil {
		return nil, err
	}
	if _, ok := s.rows[code]; ok {
		return nil, ErrCodeTaken
	}
	s.nextID++
	row := &models.Room{
		ID:        s.nextID,
		Code:      code,
		OwnerID:   ownerID,
		Status:    models.RoomStatusWaiting,
		CreatedAt: s.base.Add(time.Duration(s.nextID) * time.Second),
	}
	s.rows[code] = row
	out := *row
	return &out, nil
}

func (s *fakeStore) FindByCode(_ context.Context, code string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("find"); err != nil {
		return nil, err
	}
	row, ok := s.rows[code]
	if !ok {
		return nil, nil
	}
	out := *row
	return &out, nil
}

func (s *fakeStore) FillOwnerSeat(_ context.Context, code string, ownerID int64, status models.RoomStatus) (*models.Room, error) {
	return s.update("fill_owner", code, func(r *models.Room) {
		r.OwnerID = ownerID
		r.Status = status
	})
}

func (s *fakeStore) FillSecondSeat(_ context.Context, code string, opponentID int64, status models.RoomStatus) (*models.Room, error) {
	return s.update("fill_second", code, func(r *models.Room) {
		r.OpponentID = &opponentID
		r.Status = status
	})
}

func (s *fakeStore) UpdateStatus(_ context.Context, code string, status models.RoomStatus) (*models.Room, error) {
	return s.update("update_status", code, func(r *models.Room) {
		r.Status = status
	})
}

func (s *fakeStore) update(op, code string, fn func(*models.Room)) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(op); err != nil {
		return nil, err
	}
	row, ok := s.rows[code]
	if !ok {
		return nil, fmt.Errorf("room %s: no rows", code)
	}
	fn(row)
	out := *row
	return &out, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Emit(evt events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *recordingSink) count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/mcdev12/jokenpo/go/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]*models.Room
	seq  int64
}

func (s *memStore) CreateRoom(_ context.Context, code string, ownerID int64) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[code]; ok {
		return nil, room.ErrCodeTaken
	}
	s.seq++
	r := &models.Room{ID: s.seq, Code: code, OwnerID: ownerID, Status: models.RoomStatusWaiting, CreatedAt: time.Now()}
	s.rows[code] = r
	out := *r
	return &out, nil
}

func (s *memStore) FindByCode(_ context.Context, code string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[code]
	if !ok {
		return nil, nil
	}
	out := *r
	return &out, nil
}

func (s *memStore) FillOwnerSeat(_ context.Context, code string, ownerID int64, status models.RoomStatus) (*models.Room, error) {
	return s.update(code, func(r *models.Room) { r.OwnerID, r.Status = ownerID, status })
}

func (s *memStore) FillSecondSeat(_ context.Context, code string, opponentID int64, status models.RoomStatus) (*models.Room, error) {
	return s.update(code, func(r *models.Room) { r.OpponentID, r.Status = &opponentID, status })
}

func (s *memStore) UpdateStatus(_ context.Context, code string, status models.RoomStatus) (*models.Room, error) {
	return s.update(code, func(r *models.Room) { r.Status = status })
}

func (s *memStore) update(code string, fn func(*models.Room)) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.rows[code]
	fn(r)
	out := *r
	return &out, nil
}

type wireMsg struct {
	Type    room.MessageType `json:"type"`
	Payload json.RawMessage  `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := room.DefaultConfig()
	cfg.RoundCooldown = 20 * time.Millisecond
	manager := room.NewManager(&memStore{rows: make(map[string]*models.Room)}, cfg)
	t.Cleanup(manager.Shutdown)

	svc := NewService(DefaultConfig(), manager, NewJWTAuthenticator(testSecret), manager)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, id int64, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + signToken(t, testSecret, validClaims(id, name))
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// expect reads until a message of type want arrives.
func expect(t *testing.T, conn *websocket.Conn, want room.MessageType) wireMsg {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg wireMsg
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", want)
		if msg.Type == want {
			return msg
		}
	}
}

func TestService_RejectsUnauthenticated(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestService_GameOverWebSocket(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, 1, "alice")
	expect(t, alice, room.TypeWelcome)
	send(t, alice, `{"type":"CREATE_ROOM"}`)

	var created room.RoomInfoPayload
	require.NoError(t, json.Unmarshal(expect(t, alice, room.TypeRoomCreated).Payload, &created))
	require.Len(t, created.RoomCode, 5)

	bob := dial(t, srv, 2, "bob")
	expect(t, bob, room.TypeWelcome)
	send(t, bob, `{"type":"JOIN_ROOM","payload":{"roomCode":"`+created.RoomCode+`"}}`)
	expect(t, alice, room.TypeGameStart)
	expect(t, bob, room.TypeGameStart)

	send(t, alice, `{"type":"MAKE_CHOICE","payload":{"roomCode":"`+created.RoomCode+`","choice":"rock"}}`)
	expect(t, alice, room.TypeChoiceMade)
	expect(t, bob, room.TypeOpponentChoiceMade)
	send(t, bob, `{"type":"MAKE_CHOICE","payload":{"choice":"scissors"}}`)

	var result room.GameResultPayload
	require.NoError(t, json.Unmarshal(expect(t, bob, room.TypeGameResult).Payload, &result))
	assert.Equal(t, "alice_won", result.Result)
	expect(t, alice, room.TypeNewRound)

	send(t, bob, `{"type":"CLOSE_ROOM","payload":{"roomCode":"`+created.RoomCode+`"}}`)
	var errMsg room.MessagePayload
	require.NoError(t, json.Unmarshal(expect(t, bob, room.TypeError).Payload, &errMsg))
	assert.Equal(t, "only the room owner can close the room", errMsg.Message)

	require.NoError(t, alice.Close())
	expect(t, bob, room.TypeOpponentDisconnected)

	alice2 := dial(t, srv, 1, "alice")
	var snap room.RoomStatePayload
	require.NoError(t, json.Unmarshal(expect(t, alice2, room.TypeRoomStateUpdate).Payload, &snap))
	assert.Equal(t, created.RoomCode, snap.RoomCode)
	assert.Equal(t, room.StatusPlaying, snap.Status)
	expect(t, bob, room.TypePlayerReconnected)

	send(t, alice2, `{"type":"CLOSE_ROOM","payload":{"roomCode":"`+created.RoomCode+`"}}`)
	expect(t, alice2, room.TypeRoomClosed)
	expect(t, bob, room.TypeRoomClosed)
}

func TestService_Stats(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv, 1, "alice")
	expect(t, alice, room.TypeWelcome)

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.JSONEq(t, "1", string(body["total_connections"]))
	assert.Contains(t, body, "rooms")
}

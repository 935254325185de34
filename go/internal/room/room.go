package room

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/jokenpo/go/internal/models"
)

// Status is the in-memory lifecycle state of a room.
type Status string

const (
	StatusWaiting        Status = "waiting"
	StatusPlaying        Status = "playing"
	StatusRoundConcluded Status = "round_concluded"
	StatusClosed         Status = "closed"
)

// Room is one live game. All fields are guarded by mu and only the
// Manager touches them.
type Room struct {
	mu sync.Mutex

	code       string
	durableID  int64
	ownerID    int64
	opponentID int64 // 0 while the seat is vacant
	status     Status
	outcome    Outcome
	round      int
	createdAt  time.Time

	choices map[int64]Move
	names   map[int64]string
	conns   map[int64]Conn

	cooldown    clockwork.Timer
	cooldownSeq uint64
	idle        clockwork.Timer
	idleSeq     uint64

	// gone is set once the room has left the registry; holders of a stale
	// pointer must look the code up again.
	gone bool
}

func newRoom(row *models.Room) *Room {
	r := &Room{
		code:      row.Code,
		durableID: row.ID,
		ownerID:   row.OwnerID,
		status:    StatusWaiting,
		createdAt: row.CreatedAt,
		choices:   make(map[int64]Move),
		names:     make(map[int64]string),
		conns:     make(map[int64]Conn),
	}
	if row.OpponentID != nil {
		r.opponentID = *row.OpponentID
	}
	if r.full() {
		r.status = StatusPlaying
		r.round = 1
		if row.Status.IsConcluded() {
			r.status = StatusRoundConcluded
			winner, won := row.Status.WinnerID()
			r.outcome = Outcome{Draw: !won, WinnerID: winner}
		}
	}
	return r
}

func (r *Room) seated(id int64) bool {
	return id != 0 && (id == r.ownerID || id == r.opponentID)
}

func (r *Room) full() bool {
	return r.ownerID != 0 && r.opponentID != 0
}

// other returns the identity in the other seat, 0 if vacant.
func (r *Room) other(id int64) int64 {
	if id == r.ownerID {
		return r.opponentID
	}
	return r.ownerID
}

func (r *Room) seatIDs() []int64 {
	ids := make([]int64, 0, 2)
	if r.ownerID != 0 {
		ids = append(ids, r.ownerID)
	}
	if r.opponentID != 0 {
		ids = append(ids, r.opponentID)
	}
	return ids
}

// name falls back to the id until the player connects with a username.
func (r *Room) name(id int64) string {
	if n, ok := r.names[id]; ok && n != "" {
		return n
	}
	return strconv.FormatInt(id, 10)
}

func (r *Room) players() []PlayerInfo {
	ids := r.seatIDs()
	out := make([]PlayerInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, PlayerInfo{UserID: id, Username: r.name(id)})
	}
	return out
}

func (r *Room) info() RoomInfoPayload {
	return RoomInfoPayload{
		RoomCode: r.code,
		Players:  r.players(),
		Status:   r.status,
		OwnerID:  r.ownerID,
	}
}

// snapshot is the ROOM_STATE_UPDATE payload as seen by forID. The other
// seat's move is reported as made but not revealed.
func (r *Room) snapshot(forID int64) RoomStatePayload {
	choices := make(map[string]ChoiceInfo, len(r.choices))
	for id, m := range r.choices {
		ci := ChoiceInfo{Username: r.name(id), Chosen: true}
		if id == forID {
			ci.Choice = m
		}
		choices[userKey(id)] = ci
	}
	var mine *Move
	if m, ok := r.choices[forID]; ok {
		mine = &m
	}
	return RoomStatePayload{
		RoomCode: r.code,
		Players:  r.players(),
		Status:   r.status,
		OwnerID:  r.ownerID,
		Round:    r.round,
		Choices:  choices,
		MyChoice: mine,
	}
}

func (r *Room) send(id int64, msg Outbound) {
	if c, ok := r.conns[id]; ok {
		c.Send(msg)
	}
}

// broadcast sends msg to every live seated connection in seat order.
func (r *Room) broadcast(msg Outbound) {
	for _, id := range r.seatIDs() {
		r.send(id, msg)
	}
}

func (r *Room) liveConns() int {
	return len(r.conns)
}

// sortedChoiceIDs keeps GAME_RESULT and events deterministic.
func (r *Room) sortedChoiceIDs() []int64 {
	ids := make([]int64, 0, len(r.choices))
	for id := range r.choices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func stopTimer(t clockwork.Timer) {
	if t != nil {
		t.Stop()
	}
}

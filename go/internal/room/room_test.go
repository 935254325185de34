package room

import (
	"testing"

	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNewRoomFromRow(t *testing.T) {
	opp := int64(2)

	tests := []struct {
		name        string
		row         models.Room
		wantStatus  Status
		wantRound   int
		wantOutcome Outcome
	}{
		{
			name:       "owner only",
			row:        models.Room{Code: "AAAAA", OwnerID: 1, Status: models.RoomStatusWaiting},
			wantStatus: StatusWaiting,
		},
		{
			name:       "both seats",
			row:        models.Room{Code: "AAAAA", OwnerID: 1, OpponentID: &opp, Status: models.RoomStatusPlaying},
			wantStatus: StatusPlaying,
			wantRound:  1,
		},
		{
			name:        "concluded draw",
			row:         models.Room{Code: "AAAAA", OwnerID: 1, OpponentID: &opp, Status: models.RoomStatusDraw},
			wantStatus:  StatusRoundConcluded,
			wantRound:   1,
			wantOutcome: Outcome{Draw: true},
		},
		{
			name:        "concluded win",
			row:         models.Room{Code: "AAAAA", OwnerID: 1, OpponentID: &opp, Status: models.RoomStatusWon(2)},
			wantStatus:  StatusRoundConcluded,
			wantRound:   1,
			wantOutcome: Outcome{WinnerID: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRoom(&tt.row)
			assert.Equal(t, tt.wantStatus, r.status)
			assert.Equal(t, tt.wantRound, r.round)
			assert.Equal(t, tt.wantOutcome, r.outcome)
		})
	}
}

func TestRoomSeats(t *testing.T) {
	r := newRoom(&models.Room{Code: "AAAAA", OwnerID: 7})

	assert.True(t, r.seated(7))
	assert.False(t, r.seated(0))
	assert.False(t, r.full())
	assert.Equal(t, int64(0), r.other(7))
	assert.Equal(t, []int64{7}, r.seatIDs())

	r.names[7] = "alice"
	assert.Equal(t, "alice", r.name(7))
	assert.Equal(t, "9", r.name(9))
	assert.Equal(t, []PlayerInfo{{UserID: 7, Username: "alice"}}, r.players())
}

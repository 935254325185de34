package room

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/mcdev12/jokenpo/go/internal/room/db"
	"github.com/stretchr/testify/assert"
)

func TestDBRoomToModel(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	waiting := dbRoomToModel(db.Room{ID: 7, Code: "ABCDE", OwnerID: 1, Status: "waiting", CreatedAt: created})
	assert.Equal(t, &models.Room{ID: 7, Code: "ABCDE", OwnerID: 1, Status: models.RoomStatusWaiting, CreatedAt: created}, waiting)

	won := dbRoomToModel(db.Room{
		ID:         8,
		Code:       "FGHIJ",
		OwnerID:    1,
		OpponentID: sql.NullInt64{Int64: 2, Valid: true},
		Status:     "won:2",
	})
	if assert.NotNil(t, won.OpponentID) {
		assert.Equal(t, int64(2), *won.OpponentID)
	}
	id, ok := won.Status.WinnerID()
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique", err: &pq.Error{Code: "23505"}, want: true},
		{name: "wrapped unique", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "other pq", err: &pq.Error{Code: "23503"}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

package room

import (
	"context"

	"github.com/mcdev12/jokenpo/go/internal/models"
)

// Store is the durable side of the room registry. Every call completes
// before the paired in-memory transition is applied.
type Store interface {
	// CreateRoom inserts a waiting room. Returns ErrCodeTaken on a duplicate code.
	CreateRoom(ctx context.Context, code string, ownerID int64) (*models.Room, error)
	// FindByCode returns nil, nil when no row exists.
	FindByCode(ctx context.Context, code string) (*models.Room, error)
	FillOwnerSeat(ctx context.Context, code string, ownerID int64, status models.RoomStatus) (*models.Room, error)
	FillSecondSeat(ctx context.Context, code string, opponentID int64, status models.RoomStatus) (*models.Room, error)
	UpdateStatus(ctx context.Context, code string, status models.RoomStatus) (*models.Room, error)
}

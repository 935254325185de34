package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/mcdev12/jokenpo/go/internal/room/db"
	"github.com/mcdev12/jokenpo/go/internal/sqlutil"
)

const uniqueViolation = "23505"

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateRoom(ctx context.Context, arg db.CreateRoomParams) (db.Room, error)
	GetRoomByCode(ctx context.Context, code string) (db.Room, error)
	UpdateRoomOwner(ctx context.Context, arg db.UpdateRoomOwnerParams) (db.Room, error)
	UpdateRoomStatus(ctx context.Context, arg db.UpdateRoomStatusParams) (db.Room, error)
}

// Repository implements Store on Postgres.
type Repository struct {
	conn    sqlutil.TxBeginner
	queries Querier
}

// NewRepository creates a new rooms repository
func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		conn:    conn,
		queries: db.New(conn),
	}
}

// CreateRoom inserts a new waiting room owned by ownerID
func (r *Repository) CreateRoom(ctx context.Context, code string, ownerID int64) (*models.Room, error) {
	row, err := r.queries.CreateRoom(ctx, db.CreateRoomParams{
		Code:    code,
		OwnerID: ownerID,
		Status:  string(models.RoomStatusWaiting),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return dbRoomToModel(row), nil
}

// FindByCode retrieves a room by its public code
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	row, err := r.queries.GetRoomByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}
	return dbRoomToModel(row), nil
}

// FillOwnerSeat assigns a vacant owner seat
func (r *Repository) FillOwnerSeat(ctx context.Context, code string, ownerID int64, status models.RoomStatus) (*models.Room, error) {
	row, err := r.queries.UpdateRoomOwner(ctx, db.UpdateRoomOwnerParams{
		Code:    code,
		OwnerID: ownerID,
		Status:  string(status),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update room owner: %w", err)
	}
	return dbRoomToModel(row), nil
}

// FillSecondSeat seats the opponent under a row lock so two processes
// cannot both claim the seat.
func (r *Repository) FillSecondSeat(ctx context.Context, code string, opponentID int64, status models.RoomStatus) (*models.Room, error) {
	var out *models.Room
	err := sqlutil.Run(ctx, r.conn, db.NewTx, func(q *db.Queries) error {
		current, err := q.GetRoomByCodeForUpdate(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to lock room: %w", err)
		}
		if current.OpponentID.Valid && current.OpponentID.Int64 != opponentID {
			return ErrRoomFull
		}
		row, err := q.UpdateRoomOpponent(ctx, db.UpdateRoomOpponentParams{
			Code:       code,
			OpponentID: sqlutil.ToSqlInt64(&opponentID),
			Status:     string(status),
		})
		if err != nil {
			return fmt.Errorf("failed to update room opponent: %w", err)
		}
		out = dbRoomToModel(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus sets the stored status string
func (r *Repository) UpdateStatus(ctx context.Context, code string, status models.RoomStatus) (*models.Room, error) {
	row, err := r.queries.UpdateRoomStatus(ctx, db.UpdateRoomStatusParams{
		Code:   code,
		Status: string(status),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update room status: %w", err)
	}
	return dbRoomToModel(row), nil
}

func dbRoomToModel(row db.Room) *models.Room {
	return &models.Room{
		ID:         row.ID,
		Code:       row.Code,
		OwnerID:    row.OwnerID,
		OpponentID: sqlutil.FromSqlInt64(row.OpponentID),
		Status:     models.RoomStatus(row.Status),
		CreatedAt:  row.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

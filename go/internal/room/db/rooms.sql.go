package db

import (
	"context"
	"database/sql"
)

const roomColumns = `id, code, owner_id, opponent_id, status, created_at`

func scanRoom(row *sql.Row) (Room, error) {
	var i Room
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.OwnerID,
		&i.OpponentID,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const createRoom = `
INSERT INTO rooms (code, owner_id, status)
VALUES ($1, $2, $3)
RETURNING ` + roomColumns

type CreateRoomParams struct {
	Code    string
	OwnerID int64
	Status  string
}

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, createRoom, arg.Code, arg.OwnerID, arg.Status))
}

const getRoomByCode = `
SELECT ` + roomColumns + `
FROM rooms
WHERE code = $1`

func (q *Queries) GetRoomByCode(ctx context.Context, code string) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, getRoomByCode, code))
}

const getRoomByCodeForUpdate = getRoomByCode + `
FOR UPDATE`

func (q *Queries) GetRoomByCodeForUpdate(ctx context.Context, code string) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, getRoomByCodeForUpdate, code))
}

const updateRoomOwner = `
UPDATE rooms
SET owner_id = $2, status = $3
WHERE code = $1
RETURNING ` + roomColumns

type UpdateRoomOwnerParams struct {
	Code    string
	OwnerID int64
	Status  string
}

func (q *Queries) UpdateRoomOwner(ctx context.Context, arg UpdateRoomOwnerParams) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, updateRoomOwner, arg.Code, arg.OwnerID, arg.Status))
}

const updateRoomOpponent = `
UPDATE rooms
SET opponent_id = $2, status = $3
WHERE code = $1
RETURNING ` + roomColumns

type UpdateRoomOpponentParams struct {
	Code       string
	OpponentID sql.NullInt64
	Status     string
}

func (q *Queries) UpdateRoomOpponent(ctx context.Context, arg UpdateRoomOpponentParams) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, updateRoomOpponent, arg.Code, arg.OpponentID, arg.Status))
}

const updateRoomStatus = `
UPDATE rooms
SET status = $2
WHERE code = $1
RETURNING ` + roomColumns

type UpdateRoomStatusParams struct {
	Code   string
	Status string
}

func (q *Queries) UpdateRoomStatus(ctx context.Context, arg UpdateRoomStatusParams) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, updateRoomStatus, arg.Code, arg.Status))
}

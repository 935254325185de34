package db

import (
	"database/sql"
	"time"
)

type Room struct {
	ID         int64
	Code       string
	OwnerID    int64
	OpponentID sql.NullInt64
	Status     string
	CreatedAt  time.Time
}

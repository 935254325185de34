package db

import (
	"context"
	"database/sql"
	_ "embed"
)

// Schema is the DDL for the rooms table.
//
//go:embed schema.sql
var Schema string

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// WithTx binds the queries to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// NewTx returns queries bound to tx.
func NewTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/jokenpo/go/internal/dbconfig"
	"github.com/mcdev12/jokenpo/go/internal/room/db"
)

func main() {
	// 1) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 2) Apply the rooms schema; every statement is idempotent
	if _, err := pool.Exec(context.Background(), db.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Report current state
	var rooms int
	if err := pool.QueryRow(context.Background(), `SELECT count(*) FROM rooms`).Scan(&rooms); err != nil {
		fmt.Fprintf(os.Stderr, "count rooms: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Schema applied to %s@%s:%d/%s (%d rooms)\n", cfg.User, cfg.Host, cfg.Port, cfg.Database, rooms)
}

package database

import (
	"context"
	"database/sql"
)

// Executor is the part of *sql.Conn and *sql.Tx statements are prepared on.
type Executor interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ Executor = (*sql.Conn)(nil)
	_ Executor = (*sql.Tx)(nil)
)

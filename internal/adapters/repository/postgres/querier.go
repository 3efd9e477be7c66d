package postgres

import (
	"context"
	"database/sql"
)

// SQLQuerier is the subset of database/sql both *sql.DB and *sql.Tx satisfy.
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

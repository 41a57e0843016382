package postgres

import (
	"context"
	"database/sql"
)

// Queryer is the query surface shared by the pooled connection and an
// open transaction; repositories depend on it rather than on *sql.DB.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

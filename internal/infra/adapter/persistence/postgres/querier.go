package postgres

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB the repositories need. Satisfied by
// *sql.DB directly and by circuitbreaker.DBCircuitBreaker, which wraps the
// same methods with failure protection.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the SQLSTATE for a failed REFERENCES check.
const foreignKeyViolation = "23503"

// Querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type connKey struct{}

// WithConn scopes repository calls made with ctx to q, typically a pgx.Tx.
func WithConn(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, connKey{}, q)
}

// ConnFromContext returns the Querier set by WithConn, or nil.
func ConnFromContext(ctx context.Context) Querier {
	q, _ := ctx.Value(connKey{}).(Querier)
	return q
}

// Conn returns the context-scoped Querier if there is one, otherwise fallback.
func Conn(ctx context.Context, fallback Querier) Querier {
	if q := ConnFromContext(ctx); q != nil {
		return q
	}
	return fallback
}

// IsForeignKeyViolation reports whether err was caused by a missing referenced
// row. When constraint is non-empty the violated constraint name must match too.
func IsForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != foreignKeyViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QueryInterceptor logs every statement before handing it to the underlying Querier.
type QueryInterceptor struct {
	q   Querier
	log *zap.SugaredLogger
}

func NewQueryInterceptor(q Querier) QueryInterceptor {
	return QueryInterceptor{q: q, log: zap.S().Named("store")}
}

func (qi QueryInterceptor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	qi.log.Debugw("exec", "query", query, "args", args)
	return qi.q.ExecContext(ctx, query, args...)
}

func (qi QueryInterceptor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	qi.log.Debugw("query", "query", query, "args", args)
	return qi.q.QueryContext(ctx, query, args...)
}

func (qi QueryInterceptor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	qi.log.Debugw("query row", "query", query, "args", args)
	return qi.q.QueryRowContext(ctx, query, args...)
}

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
)

// sqlBuilder is satisfied by every goqu dataset.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// Session is a unit of work over a single transaction. Mutations accumulate
// in the transaction and become durable only when Commit is called; a
// Session tracks whether any mutation is pending so callers can commit only
// when there is something to save.
//
// A Session is not safe for concurrent use.
type Session struct {
	tx      *sql.Tx
	dialect goqu.DialectWrapper
	changes int
	done    bool
}

// HasChanges reports whether the session holds uncommitted mutations.
func (ss *Session) HasChanges() bool {
	return ss.changes > 0
}

// Commit makes the session's mutations durable.
func (ss *Session) Commit() error {
	ss.done = true
	if err := ss.tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// Rollback discards the session's mutations. It is a no-op once the session
// has been committed or rolled back.
func (ss *Session) Rollback() error {
	if ss.done {
		return nil
	}
	ss.done = true
	if err := ss.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back session: %w", err)
	}
	return nil
}

func (ss *Session) query(ctx context.Context, b sqlBuilder) (*sql.Rows, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return ss.tx.QueryContext(ctx, q, args...)
}

func (ss *Session) exec(ctx context.Context, b sqlBuilder) (sql.Result, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building statement: %w", err)
	}
	return ss.tx.ExecContext(ctx, q, args...)
}

// count runs a single-value COUNT query.
func (ss *Session) count(ctx context.Context, b sqlBuilder) (int, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}
	var n int
	if err := ss.tx.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

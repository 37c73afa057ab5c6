package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Repository holds every record operation. It keeps no state between calls
// beyond its provider: each operation acquires a connection and releases it
// before returning.
type Repository struct {
	provider *Provider
	database string
	now      func() time.Time
}

// NewRepository creates a repository over the provider's configured database.
func NewRepository(p *Provider) *Repository {
	return &Repository{
		provider: p,
		database: p.DatabaseName(),
		now:      time.Now,
	}
}

func (r *Repository) today() Date {
	return DateOf(r.now())
}

func (r *Repository) wrap(op string, err error) error {
	return wrapError(r.provider.Dialect(), op, err)
}

// withConn runs fn on a freshly acquired connection and always releases it.
func (r *Repository) withConn(ctx context.Context, op string, fn func(*sql.Conn) error) error {
	conn, err := r.provider.Connect(ctx, r.database)
	if err != nil {
		return r.wrap(op, err)
	}
	defer conn.Close()

	return r.wrap(op, fn(conn))
}

// transaction wraps fn in a transaction on its own connection. Any error from
// fn rolls back everything fn wrote.
func (r *Repository) transaction(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	conn, err := r.provider.Connect(ctx, r.database)
	if err != nil {
		return r.wrap(op, err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return r.wrap(op, fmt.Errorf("failed to begin transaction: %w", err))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Str("op", op).Msg("Failed to rollback transaction")
		}
		return r.wrap(op, err)
	}

	if err := tx.Commit(); err != nil {
		return r.wrap(op, fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// execer is satisfied by both *sql.Conn and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insert runs an INSERT and returns the new row id.
func insert(ctx context.Context, q execer, query string, args ...any) (int64, error) {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

// Package repository implements persistence over PostgreSQL with
// hand-written SQL on pgx. One repository file per aggregate; Store
// aggregates them behind the engine and service interfaces.
package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"reqflow.io/reqflow/internal/engine"
)

// Schema is the DDL for all ReqFlow tables.
//
//go:embed schema.sql
var Schema string

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so
// every query method runs unchanged inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries carries all per-aggregate query methods over one querier.
type queries struct {
	db querier
}

// Store is the pgx-backed implementation of the persistence interfaces.
// All methods outside ForRequisition run in autocommit mode on the pool.
type Store struct {
	queries
	pool *pgxpool.Pool
}

// NewStore creates a Store on the shared connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{db: pool}, pool: pool}
}

// ForRequisition runs fn in a transaction holding a row lock on the
// requisition, serializing concurrent submissions and decisions on it.
// A missing row takes no lock; fn then observes not-found as usual.
func (s *Store) ForRequisition(ctx context.Context, requisitionID string, fn func(ctx context.Context, tx engine.Store) error) error {
	return s.inTransaction(ctx, func(q *txQueries) error {
		if _, err := q.db.Exec(ctx,
			`SELECT id FROM requisitions WHERE id = $1 FOR UPDATE`, requisitionID,
		); err != nil {
			return fmt.Errorf("lock requisition %s: %w", requisitionID, err)
		}
		return fn(ctx, q)
	})
}

// txQueries is the transactional view of the store handed to ForRequisition
// callbacks. It reuses every query method bound to the open pgx.Tx.
type txQueries struct {
	queries
}

var (
	_ engine.TxStore = (*Store)(nil)
	_ engine.Store   = (*txQueries)(nil)
)

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// prefixColumns qualifies a comma-separated column list with a table
// alias for joined queries.
func prefixColumns(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, col := range parts {
		parts[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(parts, ", ")
}

func (s *Store) inTransaction(ctx context.Context, fn func(q *txQueries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txQueries{queries: queries{db: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

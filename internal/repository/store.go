package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("repository: not found")

// ErrInvalidWindow is returned by ListByOwner for a negative offset or a
// non-positive limit.
var ErrInvalidWindow = errors.New("repository: invalid page window")

// Transactor runs fn inside a unit of work. Nested calls join the outer unit.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories that share a transaction boundary.
type Store interface {
	Transactor
	Accounts() AccountRepository
	Records() RecordRepository
}

// Pool is the subset of *pgxpool.Pool used by the Postgres repositories.
type Pool interface {
	querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

type postgresStore struct {
	pool     Pool
	accounts AccountRepository
	records  RecordRepository
}

// NewPostgresStore returns a Store backed by pool.
func NewPostgresStore(pool Pool) Store {
	return &postgresStore{
		pool:     pool,
		accounts: NewAccountRepository(pool),
		records:  NewRecordRepository(pool),
	}
}

func (s *postgresStore) Accounts() AccountRepository { return s.accounts }

func (s *postgresStore) Records() RecordRepository { return s.records }

// InTransaction runs fn in a READ COMMITTED transaction. Rows read by token or
// email are locked FOR UPDATE and the unique constraints back the uniqueness checks.
func (s *postgresStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// conn returns the transaction bound to ctx, or the pool.
func conn(ctx context.Context, pool Pool) (querier, bool) {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx, true
	}
	return pool, false
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/squareit/account-service/internal/domain"
)

// RecordRepository persists numeric records. Every lookup is scoped to an owner
// and ignores soft-deleted rows.
type RecordRepository interface {
	Create(ctx context.Context, record *domain.Record) error
	Get(ctx context.Context, ownerID string, id int64) (*domain.Record, error)
	SoftDelete(ctx context.Context, ownerID string, id int64) error
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Record, error)
}

type recordRepository struct {
	pool Pool
}

// NewRecordRepository returns a Postgres-backed implementation.
func NewRecordRepository(pool Pool) RecordRepository {
	return &recordRepository{pool: pool}
}

func (r *recordRepository) Create(ctx context.Context, record *domain.Record) error {
	const query = `
        INSERT INTO records (owner_id, number)
        VALUES ($1, $2)
        RETURNING id, created_at`

	db, _ := conn(ctx, r.pool)
	if err := db.QueryRow(ctx, query, record.OwnerID, record.Number).Scan(&record.ID, &record.CreatedAt); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *recordRepository) Get(ctx context.Context, ownerID string, id int64) (*domain.Record, error) {
	const query = `
        SELECT id, owner_id, number, deleted, created_at
        FROM records WHERE id=$1 AND owner_id=$2 AND NOT deleted`

	db, _ := conn(ctx, r.pool)
	var record domain.Record
	err := db.QueryRow(ctx, query, id, ownerID).Scan(
		&record.ID,
		&record.OwnerID,
		&record.Number,
		&record.Deleted,
		&record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &record, nil
}

func (r *recordRepository) SoftDelete(ctx context.Context, ownerID string, id int64) error {
	const query = `UPDATE records SET deleted=TRUE WHERE id=$1 AND owner_id=$2 AND NOT deleted`

	db, _ := conn(ctx, r.pool)
	cmd, err := db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM records WHERE owner_id=$1 AND NOT deleted`

	db, _ := conn(ctx, r.pool)
	var count int64
	if err := db.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

func (r *recordRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Record, error) {
	const query = `
        SELECT id, owner_id, number, deleted, created_at
        FROM records WHERE owner_id=$1 AND NOT deleted
        ORDER BY id LIMIT $2 OFFSET $3`

	if offset < 0 || limit <= 0 {
		return nil, ErrInvalidWindow
	}
	db, _ := conn(ctx, r.pool)
	rows, err := db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Record, 0, limit)
	for rows.Next() {
		var record domain.Record
		if err := rows.Scan(&record.ID, &record.OwnerID, &record.Number, &record.Deleted, &record.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

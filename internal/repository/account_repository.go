package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/squareit/account-service/internal/domain"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

// AccountRepository defines persistence access for accounts and their session token.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Save(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByTokenValue(ctx context.Context, token string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CountActive(ctx context.Context) (int64, error)
}

const (
	emailConstraint    = "accounts_email_key"
	usernameConstraint = "accounts_username_key"

	accountColumns = `id, username, email, first_name, last_name, password_hash, role,
        enabled, deleted, token, confirmation_deadline, sliding_anchor, created_at, updated_at`
)

type accountRepository struct {
	pool Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (username, email, first_name, last_name, password_hash, role,
            enabled, deleted, token, confirmation_deadline, sliding_anchor)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at`

	db, _ := conn(ctx, r.pool)
	err := db.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.Role,
		account.Enabled,
		account.Deleted,
		account.Token.Value,
		account.Token.Confirmation.Deadline,
		account.Token.Sliding.Anchor,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return translateUniqueViolation(err, account)
	}
	return nil
}

func (r *accountRepository) Save(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET username=$1, email=$2, first_name=$3, last_name=$4, password_hash=$5,
            role=$6, enabled=$7, deleted=$8, token=$9, confirmation_deadline=$10, sliding_anchor=$11,
            updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`

	db, _ := conn(ctx, r.pool)
	err := db.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.Role,
		account.Enabled,
		account.Deleted,
		account.Token.Value,
		account.Token.Confirmation.Deadline,
		account.Token.Sliding.Anchor,
		account.ID,
	).Scan(&account.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return translateUniqueViolation(err, account)
	}
	return nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "email", email)
}

func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, "username", username)
}

func (r *accountRepository) FindByTokenValue(ctx context.Context, token string) (*domain.Account, error) {
	return r.findOne(ctx, "token", token)
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email=$1)`, email)
}

func (r *accountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username=$1)`, username)
}

func (r *accountRepository) CountActive(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE enabled AND NOT deleted`

	db, _ := conn(ctx, r.pool)
	var count int64
	if err := db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active accounts: %w", err)
	}
	return count, nil
}

func (r *accountRepository) findOne(ctx context.Context, column, value string) (*domain.Account, error) {
	db, inTx := conn(ctx, r.pool)
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s=$1`, accountColumns, column)
	if inTx {
		query += " FOR UPDATE"
	}

	var account domain.Account
	err := db.QueryRow(ctx, query, value).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.PasswordHash,
		&account.Role,
		&account.Enabled,
		&account.Deleted,
		&account.Token.Value,
		&account.Token.Confirmation.Deadline,
		&account.Token.Sliding.Anchor,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account by %s: %w", column, err)
	}
	return &account, nil
}

func (r *accountRepository) exists(ctx context.Context, query, value string) (bool, error) {
	db, _ := conn(ctx, r.pool)
	var found bool
	if err := db.QueryRow(ctx, query, value).Scan(&found); err != nil {
		return false, fmt.Errorf("check account existence: %w", err)
	}
	return found, nil
}

func translateUniqueViolation(err error, account *domain.Account) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return fmt.Errorf("persist account: %w", err)
	}
	switch pgErr.ConstraintName {
	case emailConstraint:
		return apperrors.NewAccountExists(apperrors.FieldEmail, account.Email)
	case usernameConstraint:
		return apperrors.NewAccountExists(apperrors.FieldUsername, account.Username)
	}
	return fmt.Errorf("persist account: %w", err)
}

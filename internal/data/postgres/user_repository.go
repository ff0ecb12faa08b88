// Package postgres provides PostgreSQL implementations of the domain
// repositories. Amounts are exchanged with the database as decimal text to
// keep the fixed-point representation exact.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/digital-wallet-ledger/internal/domain/money"
	"github.com/digital-wallet-ledger/internal/domain/user"
	"github.com/digital-wallet-ledger/internal/platform/persistence"
)

// UserRepository implements the user.Repository interface for PostgreSQL
type UserRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(logger *slog.Logger, db *persistence.PostgresDB) user.Repository {
	return &UserRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so that multiple repository
// calls share one atomic unit.
func (r *UserRepository) WithTx(tx pgx.Tx) user.Repository {
	return &UserRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const userColumns = `id, name, email, password_hash, balance::text, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var balance string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &balance, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	m, err := money.Parse(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid stored balance %q: %w", balance, err)
	}
	u.Balance = m
	return &u, nil
}

// Create stores a new user. Returns ErrDuplicateEmail when the email
// uniqueness constraint rejects the insert.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Balance.String(),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, "users_email_key") {
			return user.ErrDuplicateEmail{Email: u.Email}
		}
		r.logger.Error("Failed to create user", "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	u, err := scanUser(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound{UserID: id}
		}
		r.logger.Error("Failed to get user", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetByEmail retrieves a user by email, returning (nil, nil) when no user
// has the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`

	u, err := scanUser(r.querier.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get user by email", "error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

// LockForUpdate obtains a row lock on the user and returns its current state.
// Must be used within a transaction.
func (r *UserRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		FOR UPDATE
	`

	u, err := scanUser(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound{UserID: id}
		}
		r.logger.Error("Failed to lock user for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock user for update: %w", err)
	}

	return u, nil
}

// Credit adds amount to the user's balance.
func (r *UserRepository) Credit(ctx context.Context, id uuid.UUID, amount money.Money) error {
	return r.adjustBalance(ctx, id, "+", amount)
}

// Debit subtracts amount from the user's balance. The non-negative balance
// check constraint is the final guard; callers verify sufficiency under lock.
func (r *UserRepository) Debit(ctx context.Context, id uuid.UUID, amount money.Money) error {
	return r.adjustBalance(ctx, id, "-", amount)
}

func (r *UserRepository) adjustBalance(ctx context.Context, id uuid.UUID, op string, amount money.Money) error {
	query := fmt.Sprintf(`
		UPDATE users
		SET balance = balance %s $1::numeric, updated_at = NOW()
		WHERE id = $2
	`, op)

	result, err := r.querier.Exec(ctx, query, amount.String(), id)
	if err != nil {
		r.logger.Error("Failed to adjust user balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to adjust user balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return user.ErrUserNotFound{UserID: id}
	}

	return nil
}

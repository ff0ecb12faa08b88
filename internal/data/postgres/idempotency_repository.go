package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/digital-wallet-ledger/internal/domain/idempotency"
	"github.com/digital-wallet-ledger/internal/platform/persistence"
)

// IdempotencyRepository implements the idempotency.Repository interface for PostgreSQL
type IdempotencyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewIdempotencyRepository creates a new PostgreSQL idempotency repository.
func NewIdempotencyRepository(logger *slog.Logger, db *persistence.PostgresDB) idempotency.Repository {
	return &IdempotencyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *IdempotencyRepository) WithTx(tx pgx.Tx) idempotency.Repository {
	return &IdempotencyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Get retrieves a record by key, returning (nil, nil) when the key is unseen.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	query := `
		SELECT key, transaction_id, created_at
		FROM idempotency_keys
		WHERE key = $1
	`

	var rec idempotency.Record
	err := r.querier.QueryRow(ctx, query, key).Scan(&rec.Key, &rec.TransactionID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get idempotency record", "error", err)
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}

	return &rec, nil
}

// Create claims a key, mapping the unique violation of a concurrent claim to
// ErrDuplicateKey so callers can re-read the winner's result.
func (r *IdempotencyRepository) Create(ctx context.Context, key string) error {
	query := `
		INSERT INTO idempotency_keys (key, created_at)
		VALUES ($1, NOW())
	`

	_, err := r.querier.Exec(ctx, query, key)
	if err != nil {
		if persistence.IsUniqueViolation(err, "") {
			return idempotency.ErrDuplicateKey{Key: key}
		}
		r.logger.Error("Failed to claim idempotency key", "error", err)
		return fmt.Errorf("failed to claim idempotency key: %w", err)
	}

	return nil
}

// Bind associates a claimed key with the transaction it produced.
func (r *IdempotencyRepository) Bind(ctx context.Context, key string, transactionID uuid.UUID) error {
	query := `
		UPDATE idempotency_keys
		SET transaction_id = $1
		WHERE key = $2
	`

	result, err := r.querier.Exec(ctx, query, transactionID, key)
	if err != nil {
		r.logger.Error("Failed to bind idempotency key", "error", err)
		return fmt.Errorf("failed to bind idempotency key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("idempotency key %q was never claimed", key)
	}

	return nil
}

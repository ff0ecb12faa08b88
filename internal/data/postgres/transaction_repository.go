package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/digital-wallet-ledger/internal/domain/money"
	"github.com/digital-wallet-ledger/internal/domain/transaction"
	"github.com/digital-wallet-ledger/internal/platform/persistence"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const transactionColumns = `id, from_user_id, to_user_id, amount::text, type, status, leg, related_transaction_id, description, idempotency_key, created_at`

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var t transaction.Transaction
	var amount string
	var description *string
	if err := row.Scan(
		&t.ID,
		&t.FromUserID,
		&t.ToUserID,
		&amount,
		&t.Type,
		&t.Status,
		&t.Leg,
		&t.RelatedTransactionID,
		&description,
		&t.IdempotencyKey,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	m, err := money.Parse(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	t.Amount = m
	if description != nil {
		t.Description = *description
	}
	return &t, nil
}

// Create stores a new transaction row. A REVERSAL row violating the
// one-reversal-per-original index maps to ErrDuplicateReversal.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	query := `
		INSERT INTO financial_transactions
			(id, from_user_id, to_user_id, amount, type, status, leg, related_transaction_id, description, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var description *string
	if t.Description != "" {
		description = &t.Description
	}

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.FromUserID,
		t.ToUserID,
		t.Amount.String(),
		t.Type,
		t.Status,
		t.Leg,
		t.RelatedTransactionID,
		description,
		t.IdempotencyKey,
		t.CreatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, "financial_transactions_one_reversal_idx") && t.RelatedTransactionID != nil {
			return transaction.ErrDuplicateReversal{OriginalID: *t.RelatedTransactionID}
		}
		r.logger.Error("Failed to create transaction", "id", t.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by id
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM financial_transactions
		WHERE id = $1
	`

	t, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

// GetByIdempotencyKey retrieves the transaction bound to a key, returning
// (nil, nil) when the key produced nothing yet.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM financial_transactions
		WHERE idempotency_key = $1
	`

	t, err := scanTransaction(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by idempotency key", "error", err)
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return t, nil
}

// GetMirror retrieves the mirror leg of a transfer main leg, returning
// (nil, nil) when none exists.
func (r *TransactionRepository) GetMirror(ctx context.Context, mainID uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM financial_transactions
		WHERE related_transaction_id = $1 AND leg = $2
	`

	t, err := scanTransaction(r.querier.QueryRow(ctx, query, mainID, transaction.LegMirror))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get mirror transaction", "main_id", mainID.String(), "error", err)
		return nil, fmt.Errorf("failed to get mirror transaction: %w", err)
	}

	return t, nil
}

// GetReversals retrieves the REVERSAL transactions referencing a transaction.
func (r *TransactionRepository) GetReversals(ctx context.Context, originalID uuid.UUID) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM financial_transactions
		WHERE related_transaction_id = $1 AND type = $2
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, originalID, transaction.TypeReversal)
	if err != nil {
		r.logger.Error("Failed to get reversals", "original_id", originalID.String(), "error", err)
		return nil, fmt.Errorf("failed to get reversals: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// UpdateStatus performs the COMPLETED -> REVERSED transition.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status) error {
	query := `
		UPDATE financial_transactions
		SET status = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update transaction status", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{ID: id}
	}

	return nil
}

// ListForUser retrieves a page of transactions where the user is sender or
// receiver, newest first.
func (r *TransactionRepository) ListForUser(ctx context.Context, userID uuid.UUID, f transaction.Filter) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM financial_transactions
		WHERE (from_user_id = $1 OR to_user_id = $1)
	`
	args := []interface{}{userID}
	query, args = appendFilter(query, args, f)
	query += ` ORDER BY created_at DESC`
	query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list transactions", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// CountForUser counts transactions visible to the user under the same filter.
func (r *TransactionRepository) CountForUser(ctx context.Context, userID uuid.UUID, f transaction.Filter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM financial_transactions
		WHERE (from_user_id = $1 OR to_user_id = $1)
	`
	args := []interface{}{userID}
	query, args = appendFilter(query, args, f)

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "user_id", userID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

func appendFilter(query string, args []interface{}, f transaction.Filter) (string, []interface{}) {
	if f.Type != nil {
		args = append(args, *f.Type)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	return query, args
}

func collectTransactions(rows pgx.Rows) ([]*transaction.Transaction, error) {
	var transactions []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction rows: %w", err)
	}
	return transactions, nil
}

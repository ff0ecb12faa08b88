package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/digital-wallet-ledger/internal/domain/token"
	"github.com/digital-wallet-ledger/internal/platform/persistence"
)

// RefreshTokenRepository implements the token.Repository interface for PostgreSQL
type RefreshTokenRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewRefreshTokenRepository creates a new PostgreSQL refresh token repository.
func NewRefreshTokenRepository(logger *slog.Logger, db *persistence.PostgresDB) token.Repository {
	return &RefreshTokenRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new refresh token.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *token.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.querier.Exec(ctx, query, t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create refresh token", "user_id", t.UserID, "error", err)
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// GetByHash returns the token matching the hash, or (nil, nil) when absent.
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*token.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	var t token.RefreshToken
	err := r.querier.QueryRow(ctx, query, hash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get refresh token", "error", err)
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &t, nil
}

// Revoke marks the token unusable. Missing or already revoked tokens are
// left untouched without error.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, hash string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`
	if _, err := r.querier.Exec(ctx, query, hash); err != nil {
		r.logger.Error("Failed to revoke refresh token", "error", err)
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser invalidates every live session of the user.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	if _, err := r.querier.Exec(ctx, query, userID); err != nil {
		r.logger.Error("Failed to revoke refresh tokens", "user_id", userID, "error", err)
		return fmt.Errorf("failed to revoke refresh tokens for user: %w", err)
	}
	return nil
}

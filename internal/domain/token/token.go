// Package token defines the refresh token entity and its persistence
// contract. Only a hash of the token is ever stored.
package token

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a stored, rotatable session credential.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Valid reports whether the token is usable at the given instant.
func (t *RefreshToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// Repository manages refresh token persistence
type Repository interface {
	Create(ctx context.Context, t *RefreshToken) error

	// GetByHash returns (nil, nil) when no token matches the hash.
	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// Revoke marks the token unusable. Revoking an already revoked or
	// missing token is not an error.
	Revoke(ctx context.Context, hash string) error

	// RevokeAllForUser invalidates every live session of the user.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-wallet-ledger/internal/auth"
	"github.com/digital-wallet-ledger/internal/config"
	"github.com/digital-wallet-ledger/internal/domain/money"
	"github.com/digital-wallet-ledger/internal/domain/token"
	"github.com/digital-wallet-ledger/internal/domain/user"
)

type memUserRepo struct {
	users map[uuid.UUID]*user.User
}

func (r *memUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.ErrDuplicateEmail{Email: u.Email}
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound{UserID: id}
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.GetByID(ctx, id)
}

func (r *memUserRepo) Credit(_ context.Context, _ uuid.UUID, _ money.Money) error { return nil }
func (r *memUserRepo) Debit(_ context.Context, _ uuid.UUID, _ money.Money) error  { return nil }
func (r *memUserRepo) WithTx(_ pgx.Tx) user.Repository                            { return r }

type memTokenRepo struct {
	tokens map[string]*token.RefreshToken
}

func (r *memTokenRepo) Create(_ context.Context, t *token.RefreshToken) error {
	cp := *t
	r.tokens[t.TokenHash] = &cp
	return nil
}

func (r *memTokenRepo) GetByHash(_ context.Context, hash string) (*token.RefreshToken, error) {
	t, ok := r.tokens[hash]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) Revoke(_ context.Context, hash string) error {
	if t, ok := r.tokens[hash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (r *memTokenRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func newService(cfg *config.JWTConfig) (*auth.Service, *memUserRepo, *memTokenRepo) {
	if cfg == nil {
		cfg = &config.JWTConfig{
			Secret:     "test-secret-test-secret-test-secret",
			Issuer:     "wallet-ledger",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 168 * time.Hour,
		}
	}
	users := &memUserRepo{users: make(map[uuid.UUID]*user.User)}
	tokens := &memTokenRepo{tokens: make(map[string]*token.RefreshToken)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewService(users, tokens, cfg, logger), users, tokens
}

func TestRegister(t *testing.T) {
	svc, _, _ := newService(nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.True(t, u.Balance.IsZero())
	assert.NotEqual(t, "correct horse battery", u.PasswordHash)

	_, err = svc.Register(ctx, "Alice Again", "alice@example.com", "another password")
	var dup user.ErrDuplicateEmail
	assert.ErrorAs(t, err, &dup)
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _, _ := newService(nil)

	_, err := svc.Register(context.Background(), "Bob", "bob@example.com", "short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestLoginAndVerify(t *testing.T) {
	svc, _, _ := newService(nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	u, pair, err := svc.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newService(nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerifyRejectsExpiredAccessToken(t *testing.T) {
	svc, _, _ := newService(&config.JWTConfig{
		Secret:     "test-secret-test-secret-test-secret",
		Issuer:     "wallet-ledger",
		AccessTTL:  -time.Minute,
		RefreshTTL: time.Hour,
	})
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	svc, _, _ := newService(nil)

	_, err := svc.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newService(nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	userID, err := svc.VerifyAccessToken(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)

	// The presented token was revoked by the rotation.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	svc, _, _ := newService(&config.JWTConfig{
		Secret:     "test-secret-test-secret-test-secret",
		Issuer:     "wallet-ledger",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: -time.Hour,
	})
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	svc, _, _ := newService(nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Logging out twice is harmless.
	assert.NoError(t, svc.Logout(ctx, pair.RefreshToken))
}

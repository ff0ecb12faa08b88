package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-wallet-ledger/internal/domain/money"
	"github.com/digital-wallet-ledger/internal/domain/user"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser(t *testing.T, balance string) *user.User {
	t.Helper()
	b, err := money.Parse(balance)
	require.NoError(t, err)
	now := time.Now()
	return &user.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: "bcrypt-hash",
		Balance:      b,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

const userSelectPattern = `
		SELECT id, name, email, password_hash, balance::text, created_at, updated_at
		FROM users
		WHERE id = \$1
	`

func userRows(u *user.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "balance", "created_at", "updated_at"}).
		AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.Balance.String(), u.CreatedAt, u.UpdatedAt)
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UserRepository{querier: mock, logger: newTestLogger()}
	u := testUser(t, "0.00")

	query := `
		INSERT INTO users \(id, name, email, password_hash, balance, created_at, updated_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.Balance.String(), u.CreatedAt, u.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, u)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.Balance.String(), u.CreatedAt, u.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err := repo.Create(ctx, u)
		var dup user.ErrDuplicateEmail
		assert.ErrorAs(t, err, &dup)
		assert.Equal(t, u.Email, dup.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.Balance.String(), u.CreatedAt, u.UpdatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, u)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UserRepository{querier: mock, logger: newTestLogger()}
	expected := testUser(t, "125.50")

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(userSelectPattern).WithArgs(expected.ID).WillReturnRows(userRows(expected))

		u, err := repo.GetByID(ctx, expected.ID)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, u.ID)
		assert.Equal(t, "125.50", u.Balance.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectQuery(userSelectPattern).WithArgs(missing).WillReturnError(pgx.ErrNoRows)

		u, err := repo.GetByID(ctx, missing)
		assert.Nil(t, u)
		var notFound user.ErrUserNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, missing, notFound.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UserRepository{querier: mock, logger: newTestLogger()}
	expected := testUser(t, "10.00")

	query := `
		SELECT id, name, email, password_hash, balance::text, created_at, updated_at
		FROM users
		WHERE email = \$1
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.Email).WillReturnRows(userRows(expected))

		u, err := repo.GetByEmail(ctx, expected.Email)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, expected.ID, u.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent email yields nil, nil", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("nobody@example.com").WillReturnError(pgx.ErrNoRows)

		u, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, u)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UserRepository{querier: mock, logger: newTestLogger()}
	expected := testUser(t, "99.99")

	query := `
		SELECT id, name, email, password_hash, balance::text, created_at, updated_at
		FROM users
		WHERE id = \$1
		FOR UPDATE
	`

	mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnRows(userRows(expected))

	u, err := repo.LockForUpdate(ctx, expected.ID)
	require.NoError(t, err)
	assert.Equal(t, "99.99", u.Balance.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreditAndDebit(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UserRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()
	amount, err := money.Parse("25.00")
	require.NoError(t, err)

	t.Run("credit", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users\s+SET balance = balance \+ \$1::numeric, updated_at = NOW\(\)\s+WHERE id = \$2`).
			WithArgs(amount.String(), id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.Credit(ctx, id, amount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("debit", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users\s+SET balance = balance \- \$1::numeric, updated_at = NOW\(\)\s+WHERE id = \$2`).
			WithArgs(amount.String(), id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.Debit(ctx, id, amount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users\s+SET balance = balance \+ \$1::numeric, updated_at = NOW\(\)\s+WHERE id = \$2`).
			WithArgs(amount.String(), id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Credit(ctx, id, amount)
		var notFound user.ErrUserNotFound
		assert.ErrorAs(t, err, &notFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

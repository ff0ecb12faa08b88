package persistence

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: UniqueViolationCode, ConstraintName: "idempotency_keys_pkey"}

	t.Run("matches any constraint when none given", func(t *testing.T) {
		assert.True(t, IsUniqueViolation(uniqueErr, ""))
	})

	t.Run("matches named constraint", func(t *testing.T) {
		assert.True(t, IsUniqueViolation(uniqueErr, "idempotency_keys_pkey"))
		assert.False(t, IsUniqueViolation(uniqueErr, "users_email_key"))
	})

	t.Run("wrapped errors are unwrapped", func(t *testing.T) {
		wrapped := errors.Join(errors.New("insert failed"), uniqueErr)
		assert.True(t, IsUniqueViolation(wrapped, ""))
	})

	t.Run("other errors do not match", func(t *testing.T) {
		assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
		assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
		assert.False(t, IsUniqueViolation(nil, ""))
	})
}

func TestRunMigrations_Validation(t *testing.T) {
	err := RunMigrations("postgres://localhost/db", "")
	assert.EqualError(t, err, "migrations path cannot be empty")

	err = RunMigrations("", "migrations/postgres")
	assert.EqualError(t, err, "database URL cannot be empty")
}

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "file://migrations/postgres", sourceURL("migrations/postgres"))
	assert.Equal(t, "file:///opt/app/migrations", sourceURL("/opt/app/migrations"))
	assert.Equal(t, "file://./migrations/postgres", sourceURL("file://./migrations/postgres"))
}

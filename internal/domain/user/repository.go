package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/digital-wallet-ledger/internal/domain/money"
)

// Repository defines user persistence operations
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail returns (nil, nil) when no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// LockForUpdate acquires a row lock on the user for balance mutation.
	// Must be called inside a transaction.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*User, error)

	// Credit adds amount to the user's balance.
	Credit(ctx context.Context, id uuid.UUID, amount money.Money) error

	// Debit subtracts amount from the user's balance. The database enforces
	// a non-negative balance; callers check sufficiency under lock first.
	Debit(ctx context.Context, id uuid.UUID, amount money.Money) error

	WithTx(tx pgx.Tx) Repository
}

// ErrUserNotFound indicates a missing user
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e ErrUserNotFound) Error() string {
	return "user not found: " + e.UserID.String()
}

// Is matches any ErrUserNotFound when the target carries a nil UUID.
func (e ErrUserNotFound) Is(target error) bool {
	t, ok := target.(ErrUserNotFound)
	if !ok {
		return false
	}
	if t.UserID == uuid.Nil {
		return true
	}
	return e.UserID == t.UserID
}

// ErrDuplicateEmail indicates email uniqueness violation
type ErrDuplicateEmail struct {
	Email string
}

func (e ErrDuplicateEmail) Error() string {
	return "user with email already exists: " + e.Email
}

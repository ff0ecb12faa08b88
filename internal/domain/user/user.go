package user

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/digital-wallet-ledger/internal/domain/money"
)

// Common errors
var (
	ErrEmptyName  = errors.New("name cannot be empty")
	ErrEmptyEmail = errors.New("email cannot be empty")
)

// User is a wallet holder. The balance is the only mutable shared state in
// the system and is changed exclusively inside a ledger operation's
// transaction.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Balance      money.Money `json:"balance"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Summary is the public projection of a user attached to transaction reads.
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// NewUser creates a user with a zero balance.
func NewUser(name, email, passwordHash string) (*User, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if email == "" {
		return nil, ErrEmptyEmail
	}

	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Balance:      money.Zero(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Summary returns the public projection of the user.
func (u *User) Summary() *Summary {
	return &Summary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// CanSpend checks whether the balance covers the given amount.
func (u *User) CanSpend(amount money.Money) bool {
	return !u.Balance.LessThan(amount)
}

// Package idempotency defines the write-once key ledger that gates every
// mutating wallet operation.
package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Record binds a client-supplied key to the transaction it produced.
// A record is claimed first and bound to its transaction inside the same
// storage transaction, so a key can never be observed claimed without its
// effects or vice versa.
type Record struct {
	Key           string     `json:"key"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Repository manages idempotency record persistence
type Repository interface {
	// Get returns (nil, nil) when the key has not been seen.
	Get(ctx context.Context, key string) (*Record, error)

	// Create claims a key. Returns ErrDuplicateKey when another caller
	// claimed it first.
	Create(ctx context.Context, key string) error

	// Bind associates a claimed key with the transaction it produced.
	Bind(ctx context.Context, key string, transactionID uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateKey indicates the key uniqueness constraint rejected a claim;
// the losing caller re-reads the winner's result instead of retrying the
// operation.
type ErrDuplicateKey struct {
	Key string
}

func (e ErrDuplicateKey) Error() string {
	return "idempotency key already claimed: " + e.Key
}

// Is matches any ErrDuplicateKey when the target carries an empty key.
func (e ErrDuplicateKey) Is(target error) bool {
	t, ok := target.(ErrDuplicateKey)
	if !ok {
		return false
	}
	return t.Key == "" || e.Key == t.Key
}

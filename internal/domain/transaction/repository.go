package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Filter narrows history queries. Zero-value fields are ignored.
type Filter struct {
	Limit  int
	Offset int
	Type   *Type
	Status *Status
}

// Repository manages transaction persistence
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByIdempotencyKey returns (nil, nil) when no transaction is bound
	// to the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	// GetMirror returns the mirror leg referencing the given main leg,
	// or (nil, nil) when none exists.
	GetMirror(ctx context.Context, mainID uuid.UUID) (*Transaction, error)

	// GetReversals returns the REVERSAL transactions referencing the
	// given transaction.
	GetReversals(ctx context.Context, originalID uuid.UUID) ([]*Transaction, error)

	// UpdateStatus performs the COMPLETED -> REVERSED transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// ListForUser returns transactions where the user is sender or
	// receiver, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID, f Filter) ([]*Transaction, error)
	CountForUser(ctx context.Context, userID uuid.UUID, f Filter) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	ID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.ID.String()
}

// Is matches any ErrTransactionNotFound when the target carries a nil UUID.
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicateReversal indicates the partial unique index on REVERSAL rows
// rejected a second reversal of the same transaction.
type ErrDuplicateReversal struct {
	OriginalID uuid.UUID
}

func (e ErrDuplicateReversal) Error() string {
	return "transaction already has a reversal: " + e.OriginalID.String()
}

package ledger

import (
	"errors"

	"github.com/digital-wallet-ledger/internal/domain/money"
	"github.com/digital-wallet-ledger/internal/domain/transaction"
	"github.com/digital-wallet-ledger/internal/domain/user"
)

// Business-rule rejections. Each aborts the atomic unit with no state change.
var (
	ErrSelfTransfer          = errors.New("cannot transfer to the same user")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrReversalOfReversal    = errors.New("cannot reverse a reversal")
	ErrReversalOfMirror      = errors.New("cannot reverse a mirror transaction")
	ErrAlreadyReversed       = errors.New("transaction has already been reversed")
	ErrReversalOfFailed      = errors.New("cannot reverse a failed transaction")
	ErrReversalExists        = errors.New("transaction already has a reversal")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrKeyInUse              = errors.New("idempotency key is already in use")
)

// ErrForbidden indicates the requester is not a party to the transaction.
var ErrForbidden = errors.New("access to this transaction is denied")

// IsBadRequest reports whether err is a business-rule rejection that maps to
// a 400-class response.
func IsBadRequest(err error) bool {
	for _, target := range []error{
		ErrSelfTransfer,
		ErrInsufficientBalance,
		ErrReversalOfReversal,
		ErrReversalOfMirror,
		ErrAlreadyReversed,
		ErrReversalOfFailed,
		ErrReversalExists,
		ErrMissingIdempotencyKey,
		ErrKeyInUse,
		money.ErrInvalidFormat,
		money.ErrNonPositiveValue,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err indicates a missing user or transaction.
func IsNotFound(err error) bool {
	return errors.Is(err, user.ErrUserNotFound{}) ||
		errors.Is(err, transaction.ErrTransactionNotFound{})
}

// Package transaction defines the financial transaction entity and its
// persistence contract. Transactions are append-mostly: the only permitted
// mutation is the COMPLETED -> REVERSED status transition.
package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/digital-wallet-ledger/internal/domain/money"
)

// Type defines the financial operation a transaction records
type Type string

const (
	TypeDeposit  Type = "DEPOSIT"
	TypeTransfer Type = "TRANSFER"
	TypeReversal Type = "REVERSAL"
)

// ParseType validates a client-supplied type filter value.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeDeposit, TypeTransfer, TypeReversal:
		return Type(s), true
	}
	return "", false
}

// Status defines transaction lifecycle states
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusReversed  Status = "REVERSED"
	StatusFailed    Status = "FAILED"
)

// ParseStatus validates a client-supplied status filter value.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusCompleted, StatusReversed, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// Leg distinguishes rows with a real balance effect from display-only rows.
// A transfer writes a MAIN leg (the debit/credit pair) and a MIRROR leg that
// only exists so the sender's history shows a symmetric entry; mirror legs
// never touch balances and cannot be reversed.
type Leg string

const (
	LegMain   Leg = "MAIN"
	LegMirror Leg = "MIRROR"
)

// Transaction is a single row of the transaction store.
type Transaction struct {
	ID                   uuid.UUID   `json:"id"`
	FromUserID           *uuid.UUID  `json:"from_user_id,omitempty"`
	ToUserID             uuid.UUID   `json:"to_user_id"`
	Amount               money.Money `json:"amount"`
	Type                 Type        `json:"type"`
	Status               Status      `json:"status"`
	Leg                  Leg         `json:"leg"`
	RelatedTransactionID *uuid.UUID  `json:"related_transaction_id,omitempty"`
	Description          string      `json:"description,omitempty"`
	IdempotencyKey       string      `json:"idempotency_key"`
	CreatedAt            time.Time   `json:"created_at"`
}

// InvolvesUser reports whether the user is sender or receiver.
func (t *Transaction) InvolvesUser(userID uuid.UUID) bool {
	if t.ToUserID == userID {
		return true
	}
	return t.FromUserID != nil && *t.FromUserID == userID
}

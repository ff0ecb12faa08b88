package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/digital-wallet-ledger/internal/domain/transaction"
	"github.com/digital-wallet-ledger/internal/domain/user"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// HistoryPage is one page of a user's transaction history.
type HistoryPage struct {
	Transactions []*transaction.Transaction `json:"transactions"`
	Total        int64                      `json:"total"`
	Limit        int                        `json:"limit"`
	Offset       int                        `json:"offset"`
}

// TransactionDetail is a transaction with its joined read context: party
// summaries, the related and mirror rows, and any reversal referencing it.
type TransactionDetail struct {
	Transaction *transaction.Transaction   `json:"transaction"`
	FromUser    *user.Summary              `json:"from_user,omitempty"`
	ToUser      *user.Summary              `json:"to_user"`
	Related     *transaction.Transaction   `json:"related_transaction,omitempty"`
	Mirror      *transaction.Transaction   `json:"mirror_transaction,omitempty"`
	Reversals   []*transaction.Transaction `json:"reversals,omitempty"`
}

// GetHistory returns the user's transactions newest first. A missing limit
// falls back to the default and oversized limits are capped so no request
// can trigger an unbounded scan.
func (e *Engine) GetHistory(ctx context.Context, userID uuid.UUID, f transaction.Filter) (*HistoryPage, error) {
	if f.Limit <= 0 {
		f.Limit = defaultHistoryLimit
	}
	if f.Limit > maxHistoryLimit {
		f.Limit = maxHistoryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	list, err := e.transactions.ListForUser(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	total, err := e.transactions.CountForUser(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	return &HistoryPage{
		Transactions: list,
		Total:        total,
		Limit:        f.Limit,
		Offset:       f.Offset,
	}, nil
}

// GetTransactionByID returns the transaction with its joined context when the
// requester is sender or receiver. A missing id surfaces as NotFound before
// the party check runs, and an unrelated requester gets ErrForbidden.
func (e *Engine) GetTransactionByID(ctx context.Context, id, requesterID uuid.UUID) (*TransactionDetail, error) {
	t, err := e.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.InvolvesUser(requesterID) {
		return nil, ErrForbidden
	}

	detail := &TransactionDetail{Transaction: t}

	if t.FromUserID != nil {
		from, err := e.users.GetByID(ctx, *t.FromUserID)
		if err != nil {
			return nil, fmt.Errorf("loading sender: %w", err)
		}
		detail.FromUser = from.Summary()
	}
	to, err := e.users.GetByID(ctx, t.ToUserID)
	if err != nil {
		return nil, fmt.Errorf("loading receiver: %w", err)
	}
	detail.ToUser = to.Summary()

	if t.RelatedTransactionID != nil {
		related, err := e.transactions.GetByID(ctx, *t.RelatedTransactionID)
		if err != nil {
			return nil, fmt.Errorf("loading related transaction: %w", err)
		}
		detail.Related = related
	}
	if t.Leg == transaction.LegMain && t.Type == transaction.TypeTransfer {
		mirror, err := e.transactions.GetMirror(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("loading mirror transaction: %w", err)
		}
		detail.Mirror = mirror
	}
	if t.Leg == transaction.LegMain {
		reversals, err := e.transactions.GetReversals(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("loading reversals: %w", err)
		}
		detail.Reversals = reversals
	}

	return detail, nil
}

// Package ledger implements the wallet's transaction engine: deposits,
// transfers, reversals and history reads. Every mutating operation runs
// inside a single storage transaction that claims the caller's idempotency
// key, writes the transaction rows and applies the balance deltas, so the
// effects of one logical operation commit or roll back as a unit.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/digital-wallet-ledger/internal/domain/idempotency"
	"github.com/digital-wallet-ledger/internal/domain/money"
	"github.com/digital-wallet-ledger/internal/domain/transaction"
	"github.com/digital-wallet-ledger/internal/domain/user"
)

// TxManager runs a function inside a storage transaction, committing when it
// returns nil and rolling back otherwise.
type TxManager interface {
	ExecuteTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// Notifier receives committed transactions for downstream consumers. Calls
// happen after commit and must not block the request path.
type Notifier interface {
	TransactionCompleted(t *transaction.Transaction)
}

// Metrics counts finished operations by outcome.
type Metrics interface {
	ObserveOperation(operation, outcome string)
}

// Engine orchestrates wallet operations on top of the repositories.
// The notifier and metrics collaborators are optional.
type Engine struct {
	txManager    TxManager
	users        user.Repository
	transactions transaction.Repository
	keys         idempotency.Repository
	notifier     Notifier
	metrics      Metrics
	logger       *slog.Logger
}

// NewEngine creates a ledger engine. notifier and metrics may be nil.
func NewEngine(
	txManager TxManager,
	users user.Repository,
	transactions transaction.Repository,
	keys idempotency.Repository,
	notifier Notifier,
	metrics Metrics,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		txManager:    txManager,
		users:        users,
		transactions: transactions,
		keys:         keys,
		notifier:     notifier,
		metrics:      metrics,
		logger:       logger,
	}
}

// DepositRequest credits an amount to a user's balance.
type DepositRequest struct {
	UserID         uuid.UUID
	Amount         money.Money
	Description    string
	IdempotencyKey string
}

// TransferRequest moves an amount between two users.
type TransferRequest struct {
	FromUserID     uuid.UUID
	ToUserID       uuid.UUID
	Amount         money.Money
	Description    string
	IdempotencyKey string
}

// ReversalRequest undoes a previously completed deposit or transfer.
type ReversalRequest struct {
	TransactionID  uuid.UUID
	Description    string
	IdempotencyKey string
}

// TransferResult carries both legs of a committed transfer: the main row
// holding the balance effect and the sender's mirror row.
type TransferResult struct {
	Main   *transaction.Transaction
	Mirror *transaction.Transaction
}

// Deposit credits the amount to the user and records a DEPOSIT transaction.
func (e *Engine) Deposit(ctx context.Context, req DepositRequest) (*transaction.Transaction, error) {
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}
	if !req.Amount.IsPositive() {
		return nil, money.ErrNonPositiveValue
	}

	if prior, err := e.replay(ctx, "deposit", req.IdempotencyKey); prior != nil || err != nil {
		return prior, err
	}

	var created *transaction.Transaction
	err := e.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := e.keys.WithTx(tx).Create(ctx, req.IdempotencyKey); err != nil {
			return err
		}

		users := e.users.WithTx(tx)
		if _, err := users.LockForUpdate(ctx, req.UserID); err != nil {
			return err
		}

		t := &transaction.Transaction{
			ID:             uuid.New(),
			ToUserID:       req.UserID,
			Amount:         req.Amount,
			Type:           transaction.TypeDeposit,
			Status:         transaction.StatusCompleted,
			Leg:            transaction.LegMain,
			Description:    req.Description,
			IdempotencyKey: req.IdempotencyKey,
			CreatedAt:      time.Now(),
		}
		if err := e.transactions.WithTx(tx).Create(ctx, t); err != nil {
			return err
		}
		if err := e.keys.WithTx(tx).Bind(ctx, req.IdempotencyKey, t.ID); err != nil {
			return err
		}
		if err := users.Credit(ctx, req.UserID, req.Amount); err != nil {
			return err
		}

		created = t
		return nil
	})
	if err != nil {
		return e.resolveKeyRace(ctx, "deposit", req.IdempotencyKey, err)
	}

	e.afterCommit("deposit", created)
	return created, nil
}

// Transfer debits the sender, credits the receiver and records the main and
// mirror transaction rows. Both users are locked in a deterministic order so
// two opposing transfers cannot deadlock.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}
	if !req.Amount.IsPositive() {
		return nil, money.ErrNonPositiveValue
	}
	if req.FromUserID == req.ToUserID {
		return nil, ErrSelfTransfer
	}

	prior, err := e.replay(ctx, "transfer", req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return e.transferPair(ctx, prior)
	}

	var created TransferResult
	err = e.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := e.keys.WithTx(tx).Create(ctx, req.IdempotencyKey); err != nil {
			return err
		}

		users := e.users.WithTx(tx)
		var sender *user.User
		for _, id := range lockOrder(req.FromUserID, req.ToUserID) {
			u, err := users.LockForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if id == req.FromUserID {
				sender = u
			}
		}
		if !sender.CanSpend(req.Amount) {
			return ErrInsufficientBalance
		}

		now := time.Now()
		txRepo := e.transactions.WithTx(tx)
		main := &transaction.Transaction{
			ID:             uuid.New(),
			FromUserID:     &req.FromUserID,
			ToUserID:       req.ToUserID,
			Amount:         req.Amount,
			Type:           transaction.TypeTransfer,
			Status:         transaction.StatusCompleted,
			Leg:            transaction.LegMain,
			Description:    req.Description,
			IdempotencyKey: req.IdempotencyKey,
			CreatedAt:      now,
		}
		if err := txRepo.Create(ctx, main); err != nil {
			return err
		}

		// The mirror row gives the sender a symmetric history entry. It
		// carries no balance effect and gets a synthetic key to satisfy
		// the idempotency uniqueness constraint.
		mirror := &transaction.Transaction{
			ID:                   uuid.New(),
			ToUserID:             req.FromUserID,
			Amount:               req.Amount,
			Type:                 transaction.TypeTransfer,
			Status:               transaction.StatusCompleted,
			Leg:                  transaction.LegMirror,
			RelatedTransactionID: &main.ID,
			Description:          fmt.Sprintf("Mirror of %s", main.ID),
			IdempotencyKey:       uuid.NewString(),
			CreatedAt:            now,
		}
		if err := txRepo.Create(ctx, mirror); err != nil {
			return err
		}

		if err := e.keys.WithTx(tx).Bind(ctx, req.IdempotencyKey, main.ID); err != nil {
			return err
		}
		if err := users.Debit(ctx, req.FromUserID, req.Amount); err != nil {
			return err
		}
		if err := users.Credit(ctx, req.ToUserID, req.Amount); err != nil {
			return err
		}

		created = TransferResult{Main: main, Mirror: mirror}
		return nil
	})
	if err != nil {
		winner, raceErr := e.resolveKeyRace(ctx, "transfer", req.IdempotencyKey, err)
		if raceErr != nil {
			return nil, raceErr
		}
		return e.transferPair(ctx, winner)
	}

	e.afterCommit("transfer", created.Main)
	return &created, nil
}

// transferPair completes a replayed or race-resolved transfer by re-fetching
// the mirror row for the already-committed main leg.
func (e *Engine) transferPair(ctx context.Context, main *transaction.Transaction) (*TransferResult, error) {
	mirror, err := e.transactions.GetMirror(ctx, main.ID)
	if err != nil {
		return nil, fmt.Errorf("mirror lookup: %w", err)
	}
	return &TransferResult{Main: main, Mirror: mirror}, nil
}

// Reverse undoes a completed deposit or transfer main leg: it applies the
// inverse balance deltas, records a REVERSAL transaction referencing the
// original and flips the original (and its mirror) to REVERSED.
func (e *Engine) Reverse(ctx context.Context, req ReversalRequest) (*transaction.Transaction, error) {
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	if prior, err := e.replay(ctx, "reversal", req.IdempotencyKey); prior != nil || err != nil {
		return prior, err
	}

	var created *transaction.Transaction
	err := e.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := e.keys.WithTx(tx).Create(ctx, req.IdempotencyKey); err != nil {
			return err
		}

		txRepo := e.transactions.WithTx(tx)
		original, err := txRepo.GetByID(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		if original.Leg == transaction.LegMirror {
			return ErrReversalOfMirror
		}
		if original.Type == transaction.TypeReversal {
			return ErrReversalOfReversal
		}
		switch original.Status {
		case transaction.StatusReversed:
			return ErrAlreadyReversed
		case transaction.StatusFailed:
			return ErrReversalOfFailed
		}
		priorReversals, err := txRepo.GetReversals(ctx, original.ID)
		if err != nil {
			return err
		}
		if len(priorReversals) > 0 {
			return ErrReversalExists
		}

		// The original receiver gives the money back; for a transfer it
		// returns to the sender, for a deposit it simply leaves the
		// receiver's balance.
		debited := original.ToUserID
		credited := original.ToUserID
		if original.FromUserID != nil {
			credited = *original.FromUserID
		}

		users := e.users.WithTx(tx)
		var payer *user.User
		for _, id := range lockOrder(debited, credited) {
			u, err := users.LockForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if id == debited {
				payer = u
			}
		}
		if !payer.CanSpend(original.Amount) {
			return ErrInsufficientBalance
		}

		rev := &transaction.Transaction{
			ID:                   uuid.New(),
			FromUserID:           &debited,
			ToUserID:             credited,
			Amount:               original.Amount,
			Type:                 transaction.TypeReversal,
			Status:               transaction.StatusCompleted,
			Leg:                  transaction.LegMain,
			RelatedTransactionID: &original.ID,
			Description:          req.Description,
			IdempotencyKey:       req.IdempotencyKey,
			CreatedAt:            time.Now(),
		}
		if err := txRepo.Create(ctx, rev); err != nil {
			var dup transaction.ErrDuplicateReversal
			if errors.As(err, &dup) {
				return ErrReversalExists
			}
			return err
		}
		if err := e.keys.WithTx(tx).Bind(ctx, req.IdempotencyKey, rev.ID); err != nil {
			return err
		}

		if err := users.Debit(ctx, debited, original.Amount); err != nil {
			return err
		}
		if credited != debited {
			if err := users.Credit(ctx, credited, original.Amount); err != nil {
				return err
			}
		}

		if err := txRepo.UpdateStatus(ctx, original.ID, transaction.StatusReversed); err != nil {
			return err
		}
		if original.Type == transaction.TypeTransfer {
			mirror, err := txRepo.GetMirror(ctx, original.ID)
			if err != nil {
				return err
			}
			if mirror != nil {
				if err := txRepo.UpdateStatus(ctx, mirror.ID, transaction.StatusReversed); err != nil {
					return err
				}
			}
		}

		created = rev
		return nil
	})
	if err != nil {
		return e.resolveKeyRace(ctx, "reversal", req.IdempotencyKey, err)
	}

	e.afterCommit("reversal", created)
	return created, nil
}

// replay returns the transaction already bound to the key, or (nil, nil)
// when the key is fresh.
func (e *Engine) replay(ctx context.Context, op, key string) (*transaction.Transaction, error) {
	t, err := e.transactions.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if t != nil {
		e.logger.Info("idempotent replay", "operation", op, "transaction_id", t.ID)
		e.observe(op, "replayed")
	}
	return t, nil
}

// resolveKeyRace handles a failed atomic unit. A lost idempotency race is
// resolved by re-reading the winner's result; everything else propagates.
func (e *Engine) resolveKeyRace(ctx context.Context, op, key string, cause error) (*transaction.Transaction, error) {
	if !errors.Is(cause, idempotency.ErrDuplicateKey{}) {
		if IsBadRequest(cause) || IsNotFound(cause) {
			e.observe(op, "rejected")
		} else {
			e.observe(op, "error")
		}
		return nil, cause
	}

	t, err := e.transactions.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency re-read: %w", err)
	}
	if t == nil {
		return nil, ErrKeyInUse
	}
	e.logger.Info("idempotency race lost, returning winner's result", "operation", op, "transaction_id", t.ID)
	e.observe(op, "replayed")
	return t, nil
}

func (e *Engine) afterCommit(op string, t *transaction.Transaction) {
	e.observe(op, "completed")
	if e.notifier != nil {
		e.notifier.TransactionCompleted(t)
	}
}

func (e *Engine) observe(op, outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveOperation(op, outcome)
	}
}

// lockOrder returns the two user ids in a total order so concurrent
// operations touching the same pair always lock in the same sequence.
func lockOrder(a, b uuid.UUID) []uuid.UUID {
	if a == b {
		return []uuid.UUID{a}
	}
	if bytes.Compare(a[:], b[:]) <= 0 {
		return []uuid.UUID{a, b}
	}
	return []uuid.UUID{b, a}
}

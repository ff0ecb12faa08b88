package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/digital-wallet-ledger/internal/api_gateway/middleware"
	"github.com/digital-wallet-ledger/internal/domain/money"
	"github.com/digital-wallet-ledger/internal/domain/transaction"
	"github.com/digital-wallet-ledger/internal/ledger"
)

// LedgerService is the engine surface the transaction handler depends on
type LedgerService interface {
	Deposit(ctx context.Context, req ledger.DepositRequest) (*transaction.Transaction, error)
	Transfer(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error)
	Reverse(ctx context.Context, req ledger.ReversalRequest) (*transaction.Transaction, error)
	GetHistory(ctx context.Context, userID uuid.UUID, f transaction.Filter) (*ledger.HistoryPage, error)
	GetTransactionByID(ctx context.Context, id, requesterID uuid.UUID) (*ledger.TransactionDetail, error)
}

// TransactionHandler handles HTTP requests for wallet operations
type TransactionHandler struct {
	ledger LedgerService
	logger *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, ledgerService LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledger: ledgerService,
		logger: logger,
	}
}

// Deposit credits the authenticated user's balance
func (h *TransactionHandler) Deposit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}

	tx, err := h.ledger.Deposit(c.Request.Context(), ledger.DepositRequest{
		UserID:         userID,
		Amount:         amount,
		Description:    req.Description,
		IdempotencyKey: middleware.GetIdempotencyKey(c),
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(tx))
}

// Transfer moves money from the authenticated user to another user
func (h *TransactionHandler) Transfer(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		RespondBadRequest(c, "Invalid to_user_id")
		return
	}
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}

	result, err := h.ledger.Transfer(c.Request.Context(), ledger.TransferRequest{
		FromUserID:     userID,
		ToUserID:       toUserID,
		Amount:         amount,
		Description:    req.Description,
		IdempotencyKey: middleware.GetIdempotencyKey(c),
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, mapTransferToResponse(result))
}

// Reverse undoes a completed deposit or transfer
func (h *TransactionHandler) Reverse(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req ReversalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		RespondBadRequest(c, "Invalid transaction_id")
		return
	}

	tx, err := h.ledger.Reverse(c.Request.Context(), ledger.ReversalRequest{
		TransactionID:  transactionID,
		Description:    req.Description,
		IdempotencyKey: middleware.GetIdempotencyKey(c),
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(tx))
}

// History returns a page of the authenticated user's transactions
func (h *TransactionHandler) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := transaction.Filter{Limit: q.Limit, Offset: q.Offset}
	if q.Type != "" {
		t, ok := transaction.ParseType(q.Type)
		if !ok {
			RespondBadRequest(c, "Invalid type filter")
			return
		}
		filter.Type = &t
	}
	if q.Status != "" {
		s, ok := transaction.ParseStatus(q.Status)
		if !ok {
			RespondBadRequest(c, "Invalid status filter")
			return
		}
		filter.Status = &s
	}

	page, err := h.ledger.GetHistory(c.Request.Context(), userID, filter)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondWithPage(c, mapTransactionsToResponse(page.Transactions), page.Limit, page.Offset, page.Total)
}

// GetByID returns one transaction with its joined read context
func (h *TransactionHandler) GetByID(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction id")
		return
	}

	detail, err := h.ledger.GetTransactionByID(c.Request.Context(), id, userID)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondOK(c, mapDetailToResponse(detail))
}

func (h *TransactionHandler) respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrForbidden):
		RespondForbidden(c, err.Error())
	case ledger.IsNotFound(err):
		RespondNotFound(c, err.Error())
	case ledger.IsBadRequest(err):
		RespondBadRequest(c, err.Error())
	default:
		h.logger.Error("Ledger operation failed", "error", err, "correlation_id", middleware.GetCorrelationID(c))
		RespondInternalError(c)
	}
}

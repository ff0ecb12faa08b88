package handler

import (
	"time"

	"github.com/digital-wallet-ledger/internal/domain/transaction"
	"github.com/digital-wallet-ledger/internal/domain/user"
	"github.com/digital-wallet-ledger/internal/ledger"
)

// RegisterRequest creates a new wallet user
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest authenticates a user
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token for rotation or revocation. The
// field is optional in the body because the cookie can supply it instead.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// DepositRequest credits the authenticated user's balance
type DepositRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// TransferRequest moves money from the authenticated user to another
type TransferRequest struct {
	ToUserID    string `json:"to_user_id" binding:"required,uuid"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// ReversalRequest undoes a completed deposit or transfer
type ReversalRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	Description   string `json:"description,omitempty" binding:"max=255"`
}

// HistoryQuery carries pagination and filter parameters for history reads
type HistoryQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
	Type   string `form:"type" binding:"omitempty"`
	Status string `form:"status" binding:"omitempty"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                   string    `json:"id"`
	FromUserID           *string   `json:"from_user_id,omitempty"`
	ToUserID             string    `json:"to_user_id"`
	Amount               string    `json:"amount"`
	Type                 string    `json:"type"`
	Status               string    `json:"status"`
	Leg                  string    `json:"leg"`
	RelatedTransactionID *string   `json:"related_transaction_id,omitempty"`
	Description          string    `json:"description,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// TransferResponse carries both legs of a transfer: the main row with the
// balance effect and the sender's mirror entry
type TransferResponse struct {
	Main   *TransactionResponse `json:"main"`
	Mirror *TransactionResponse `json:"mirror,omitempty"`
}

// TransactionDetailResponse is a transaction with its joined read context
type TransactionDetailResponse struct {
	Transaction *TransactionResponse   `json:"transaction"`
	FromUser    *user.Summary          `json:"from_user,omitempty"`
	ToUser      *user.Summary          `json:"to_user"`
	Related     *TransactionResponse   `json:"related_transaction,omitempty"`
	Mirror      *TransactionResponse   `json:"mirror_transaction,omitempty"`
	Reversals   []*TransactionResponse `json:"reversals,omitempty"`
}

func mapUserToResponse(u *user.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Balance:   u.Balance.String(),
		CreatedAt: u.CreatedAt,
	}
}

func mapTransactionToResponse(t *transaction.Transaction) *TransactionResponse {
	if t == nil {
		return nil
	}
	resp := &TransactionResponse{
		ID:          t.ID.String(),
		ToUserID:    t.ToUserID.String(),
		Amount:      t.Amount.String(),
		Type:        string(t.Type),
		Status:      string(t.Status),
		Leg:         string(t.Leg),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if t.FromUserID != nil {
		s := t.FromUserID.String()
		resp.FromUserID = &s
	}
	if t.RelatedTransactionID != nil {
		s := t.RelatedTransactionID.String()
		resp.RelatedTransactionID = &s
	}
	return resp
}

func mapTransferToResponse(r *ledger.TransferResult) *TransferResponse {
	return &TransferResponse{
		Main:   mapTransactionToResponse(r.Main),
		Mirror: mapTransactionToResponse(r.Mirror),
	}
}

func mapTransactionsToResponse(ts []*transaction.Transaction) []*TransactionResponse {
	out := make([]*TransactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, mapTransactionToResponse(t))
	}
	return out
}

func mapDetailToResponse(d *ledger.TransactionDetail) *TransactionDetailResponse {
	return &TransactionDetailResponse{
		Transaction: mapTransactionToResponse(d.Transaction),
		FromUser:    d.FromUser,
		ToUser:      d.ToUser,
		Related:     mapTransactionToResponse(d.Related),
		Mirror:      mapTransactionToResponse(d.Mirror),
		Reversals:   mapTransactionsToResponse(d.Reversals),
	}
}

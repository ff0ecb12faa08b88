package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/digital-wallet-ledger/internal/api_gateway/middleware"
	"github.com/digital-wallet-ledger/internal/domain/user"
)

// UserReader is the user lookup surface the user handler depends on
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// UserHandler handles HTTP requests for user profile operations
type UserHandler struct {
	users  UserReader
	logger *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(logger *slog.Logger, users UserReader) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// Me returns the authenticated user's profile and current balance
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			RespondNotFound(c, "User not found")
			return
		}
		h.logger.Error("Failed to load user profile", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapUserToResponse(u))
}

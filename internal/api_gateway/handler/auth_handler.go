package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digital-wallet-ledger/internal/api_gateway/middleware"
	"github.com/digital-wallet-ledger/internal/auth"
	"github.com/digital-wallet-ledger/internal/domain/user"
)

// RefreshTokenCookie is the cookie fallback for the refresh token.
const RefreshTokenCookie = "refresh_token"

// AuthService is the authentication surface the auth handler depends on
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, *auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuthHandler handles registration, login and token lifecycle requests
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(logger *slog.Logger, authService AuthService) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger,
	}
}

// LoginResponse carries the authenticated user and their token pair
type LoginResponse struct {
	User   *UserResponse   `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Register creates a new wallet user
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	u, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var dup user.ErrDuplicateEmail
		switch {
		case errors.As(err, &dup):
			RespondConflict(c, "A user with this email already exists")
		case errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, user.ErrEmptyName),
			errors.Is(err, user.ErrEmptyEmail):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Registration failed", "error", err, "correlation_id", middleware.GetCorrelationID(c))
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapUserToResponse(u))
}

// Login verifies credentials and issues a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	u, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondUnauthorized(c, "Invalid email or password")
			return
		}
		h.logger.Error("Login failed", "error", err, "correlation_id", middleware.GetCorrelationID(c))
		RespondInternalError(c)
		return
	}

	setAuthCookies(c, tokens)
	RespondOK(c, &LoginResponse{
		User:   mapUserToResponse(u),
		Tokens: tokens,
	})
}

// Refresh rotates a refresh token, taken from the request body or the cookie
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, ok := refreshTokenFromRequest(c)
	if !ok {
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			RespondUnauthorized(c, "Invalid or expired refresh token")
			return
		}
		h.logger.Error("Token refresh failed", "error", err, "correlation_id", middleware.GetCorrelationID(c))
		RespondInternalError(c)
		return
	}

	setAuthCookies(c, tokens)
	RespondOK(c, tokens)
}

// Logout revokes the presented refresh token and clears the auth cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := refreshTokenFromRequest(c)
	if !ok {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.logger.Error("Logout failed", "error", err, "correlation_id", middleware.GetCorrelationID(c))
		RespondInternalError(c)
		return
	}

	clearAuthCookies(c)
	RespondNoContent(c)
}

// refreshTokenFromRequest resolves the refresh token from the JSON body,
// falling back to the cookie for browser clients. It writes the 400 itself
// and returns false when neither source provides one.
func refreshTokenFromRequest(c *gin.Context) (string, bool) {
	var req RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return "", false
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, true
	}
	if token, err := c.Cookie(RefreshTokenCookie); err == nil && token != "" {
		return token, true
	}
	RespondBadRequest(c, "A refresh token is required, in the request body or the refresh token cookie")
	return "", false
}

// setAuthCookies mirrors the token pair into HttpOnly cookies so browser
// clients can authenticate without attaching headers.
func setAuthCookies(c *gin.Context, tokens *auth.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken,
		cookieMaxAge(tokens.AccessExpiresAt), "/", "", false, true)
	c.SetCookie(RefreshTokenCookie, tokens.RefreshToken,
		cookieMaxAge(tokens.RefreshExpiresAt), "/", "", false, true)
}

func clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", false, true)
}

func cookieMaxAge(expiresAt time.Time) int {
	age := int(time.Until(expiresAt).Seconds())
	if age < 0 {
		age = 0
	}
	return age
}

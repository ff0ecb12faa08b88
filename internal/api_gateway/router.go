package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digital-wallet-ledger/internal/api_gateway/handler"
	"github.com/digital-wallet-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	verifier middleware.TokenVerifier,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	transactionHandler *handler.TransactionHandler,
	metricsHandler http.Handler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Session lifecycle, open to unauthenticated callers
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(verifier))
		{
			protected.GET("/users/me", userHandler.Me)

			// Wallet operations
			transactions := protected.Group("/transactions")
			{
				transactions.POST("/deposit", middleware.IdempotencyKey(), transactionHandler.Deposit)
				transactions.POST("/transfer", middleware.IdempotencyKey(), transactionHandler.Transfer)
				transactions.POST("/reverse", middleware.IdempotencyKey(), transactionHandler.Reverse)
				transactions.GET("", transactionHandler.History)
				transactions.GET("/:id", transactionHandler.GetByID)
			}
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// IdempotencyKeyHeader is the HTTP header carrying the client's key
	IdempotencyKeyHeader = "Idempotency-Key"

	// IdempotencyKeyKey is the context key for the validated key
	IdempotencyKeyKey = "idempotency_key"

	minIdempotencyKeyLength = 16
	maxIdempotencyKeyLength = 255
)

// IdempotencyKey middleware requires a sufficiently long Idempotency-Key
// header on mutating wallet operations.
func IdempotencyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if len(key) < minIdempotencyKeyLength || len(key) > maxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest,
				"BAD_REQUEST", "Idempotency-Key header is required and must be 16 to 255 characters")
			return
		}

		c.Set(IdempotencyKeyKey, key)
		c.Next()
	}
}

// GetIdempotencyKey retrieves the validated idempotency key from the gin context.
func GetIdempotencyKey(c *gin.Context) string {
	if v, exists := c.Get(IdempotencyKeyKey); exists {
		if key, ok := v.(string); ok {
			return key
		}
	}
	return ""
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the request's correlation id
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey is the context key for the correlation id
	CorrelationIDKey = "correlation_id"

	// maxCorrelationIDLength guards against abusive header values; anything
	// longer is replaced rather than echoed back.
	maxCorrelationIDLength = 64
)

// CorrelationID tags every request with a correlation id, reusing the
// caller's when one is supplied, and echoes it in the response header so
// wallet operations can be traced across log lines.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" || len(id) > maxCorrelationIDLength {
			id = uuid.NewString()
		}

		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)

		c.Next()
	}
}

// GetCorrelationID retrieves the correlation id from the gin context if present
func GetCorrelationID(c *gin.Context) string {
	if v, exists := c.Get(CorrelationIDKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

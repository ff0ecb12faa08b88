package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CorrelationID())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"correlation_id": GetCorrelationID(c)})
	})

	t.Run("propagates the incoming header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CorrelationIDHeader, "incoming-id")
		r.ServeHTTP(w, req)

		assert.Equal(t, "incoming-id", w.Header().Get(CorrelationIDHeader))
		assert.Contains(t, w.Body.String(), "incoming-id")
	})

	t.Run("generates an id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		generated := w.Header().Get(CorrelationIDHeader)
		_, err := uuid.Parse(generated)
		assert.NoError(t, err)
	})

	t.Run("replaces an over-long incoming id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CorrelationIDHeader, strings.Repeat("x", maxCorrelationIDLength+1))
		r.ServeHTTP(w, req)

		generated := w.Header().Get(CorrelationIDHeader)
		_, err := uuid.Parse(generated)
		assert.NoError(t, err)
	})
}

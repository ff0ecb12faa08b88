package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDKey is the key used to store the authenticated user id in the context
	UserIDKey = "user_id"

	// AccessTokenCookie is the cookie fallback for the access token, set by
	// the auth handlers for browser clients that cannot attach headers.
	AccessTokenCookie = "access_token"
)

// TokenVerifier validates an access token and returns the user id it was
// issued for.
type TokenVerifier interface {
	VerifyAccessToken(token string) (uuid.UUID, error)
}

// Auth requires a valid access token, from the Authorization header or,
// when that is absent, from the access token cookie, and stores the
// authenticated user id in the request context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized,
				"UNAUTHORIZED", "Missing access token")
			return
		}

		userID, err := verifier.VerifyAccessToken(token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized,
				"UNAUTHORIZED", "Invalid or expired access token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// bearerToken extracts the access token from the Authorization header, then
// from the cookie. A malformed header does not fall through to the cookie.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return ""
		}
		return token
	}
	if token, err := c.Cookie(AccessTokenCookie); err == nil {
		return token
	}
	return ""
}

// GetUserID retrieves the authenticated user id from the gin context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

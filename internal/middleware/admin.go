package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware guards mutating ops endpoints (accuracy recompute, weight
// refresh) with a shared API key.
type AdminMiddleware struct {
	apiKey string
}

// NewAdminMiddleware creates the guard with the configured admin key. An
// empty key locks every guarded route; config validation refuses an empty
// key outside development.
func NewAdminMiddleware(apiKey string) *AdminMiddleware {
	return &AdminMiddleware{
		apiKey: apiKey,
	}
}

// RequireAdminAuth validates the admin API key. The key is accepted from the
// Authorization header (Bearer token), the X-API-Key header, or the api_key
// query parameter, in that order.
func (am *AdminMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) == 2 && tokenParts[0] == "Bearer" && am.ValidateAdminKey(tokenParts[1]) {
				c.Next()
				return
			}
		}

		if am.ValidateAdminKey(c.GetHeader("X-API-Key")) {
			c.Next()
			return
		}

		// Query parameter fallback for development tooling.
		if am.ValidateAdminKey(c.Query("api_key")) {
			c.Next()
			return
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "Valid admin API key required for this endpoint",
		})
		c.Abort()
	}
}

// ValidateAdminKey reports whether key matches the configured admin key.
// An unconfigured key never matches anything.
func (am *AdminMiddleware) ValidateAdminKey(key string) bool {
	if am.apiKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(am.apiKey)) == 1
}

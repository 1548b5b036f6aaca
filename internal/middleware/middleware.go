package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/auth"
	"taskflow/pkg/logger"
)

// userKey is where the authenticated owner id is stored on the gin context.
const userKey = "user"

// Owner returns the authenticated owner id, set by Auth.
func Owner(c *gin.Context) string {
	return c.GetString(userKey)
}

// RequestID tags each request's context logger with a request id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithRequestID(c.Request.Context(), uuid.New().String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Auth extracts the bearer credential and resolves it through the verifier
// chain. The route layer only ever sees the opaque owner id.
func Auth(chain *auth.Chain) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if header == "" || !strings.HasPrefix(header, prefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		credential := strings.TrimSpace(header[len(prefix):])

		owner, err := chain.Authenticate(ctx, credential)
		if err != nil {
			logger.Debug(ctx, "Authentication failed", "error", err)
			msg := "Unauthorized"
			if errors.Is(err, auth.ErrExpiredCredential) {
				msg = "Credential expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}
		c.Set(userKey, owner)
		c.Next()
	}
}

// RequireOwner rejects requests whose path user id does not match the
// authenticated owner. No data of another owner is ever reachable.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param("user_id") != Owner(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: cannot access another user's resources"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CORS allows the configured browser origins with credentials.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed[origin] {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Set("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

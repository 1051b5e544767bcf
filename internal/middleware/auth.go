package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dispatch/internal/redis"
)

// Context keys set by SessionMiddleware.
const (
	ContextActorID = "actorID"
	ContextRole    = "actorRole"
)

// SessionMiddleware returns middleware that resolves the bearer token to
// a session and rejects requests without a live one. Each token is an
// independent TTL'd entry, so rider and driver sessions coexist.
func SessionMiddleware(sessions redis.SessionStoreInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		session, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			return
		}
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(ContextActorID, session.ActorID)
		c.Set(ContextRole, session.Role)
		c.Next()
	}
}

// RequireRole returns middleware that rejects sessions of the wrong role.
// Must run after SessionMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden for this role"})
			return
		}
		c.Next()
	}
}

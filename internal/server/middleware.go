package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/auth"
	"github.com/quayside/quayside/internal/user"
)

// userIDKey is the gin context key for the authenticated user's id.
const userIDKey = "userID"

// requireAuth validates the bearer token from the Authorization header
// or the apiToken cookie and stashes the caller's user id in the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie("apiToken")
		token := auth.ExtractToken(c.GetHeader("Authorization"), cookie)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing API token"})
			return
		}

		userID, err := auth.ParseToken(s.cfg.Auth.TokenSecret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid API token"})
			return
		}
		if _, err := user.Get(s.db, userID); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unknown user"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID returns the authenticated user's id set by requireAuth.
func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

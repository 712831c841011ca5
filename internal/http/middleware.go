package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// identityKey is where the resolved admin identity is stored on the
// request context for downstream handlers.
const identityKey = "identity"

// requireAuth guards write operations: it validates the bearer token,
// then checks the username claim still resolves to a stored credential.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		username, err := h.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := h.users.GetByUsername(c.Request.Context(), username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}

		c.Set(identityKey, user)
		c.Next()
	}
}

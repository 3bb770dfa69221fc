package authmw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set for downstream handlers.
const (
	CtxUserID   = "auth.userid"
	CtxUsername = "auth.username"
)

// RequireAuth rejects requests without a valid bearer token and puts the
// resolved identity into the gin context for handlers.
func (s *TokenService) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := extractAccessToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})

			return
		}

		claims, err := s.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})

			return
		}

		// Put identity into context for handlers
		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxUsername, claims.Username)

		c.Next()
	}
}

// --- helpers ---

func extractAccessToken(c *gin.Context) (string, error) {
	// 1) Authorization: Bearer <token>
	authz := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:]), nil
	}

	// 2) Optional: cookie fallback (if you store token in cookie)
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, nil
	}

	return "", errors.New("missing access token")
}

package middleware

import (
	"net/http"
	"strings"

	"finzora/api/logger"
	"finzora/api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"
)

type TokenParser interface {
	Parse(token string) (*models.SessionClaims, error)
}

// Auth resolves the caller's user id. With required=false requests without
// a token act as defaultUser; a token that is present must still be valid.
func Auth(tokens TokenParser, required bool, defaultUser string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c.Request)
		if tokenString == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing or invalid token"})
				return
			}
			c.Set(userIDKey, defaultUser)
			c.Next()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			logger.Get().Debug("rejected token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}

		userID := claims.Subject
		if userID == "" {
			userID = defaultUser
		}
		c.Set(claimsKey, claims)
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func Claims(c *gin.Context) (*models.SessionClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*models.SessionClaims)
	return claims, ok
}

// extractToken reads a Bearer header, falling back to ?token= for
// EventSource and WebSocket clients that cannot set headers.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return r.URL.Query().Get("token")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

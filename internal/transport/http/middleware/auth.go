package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hireloop/engine/internal/requestid"
)

const (
	errUnauthorized = "Unauthorized"
	errForbidden    = "Forbidden"
)

// Auth validates a Bearer JWT and sets "employerID" and "role" in the
// gin context.
func Auth(jwtKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		rawToken := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtKey, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		accountID, ok := claims["sub"].(string)
		if !ok || accountID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		role, _ := claims["role"].(string)

		c.Set("employerID", accountID)
		c.Set("role", role)
		// Tag the request context so every log line downstream carries
		// the acting account.
		c.Request = c.Request.WithContext(requestid.WithActor(c.Request.Context(), accountID))
		c.Next()
	}
}

// AdminOnly rejects requests whose JWT role claim is not "admin".
// Must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errForbidden})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const tokenContextKey = "sessionToken"

// TokenRequired extracts the caller's bearer token from the Authorization
// header and stashes it in the request context. It only checks transport
// shape — whether the token actually authorizes anything is decided by the
// account service against the store.
func TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		c.Set(tokenContextKey, parts[1])
		c.Next()
	}
}

// GetToken returns the bearer token extracted by TokenRequired.
func GetToken(c *gin.Context) (string, bool) {
	token, exists := c.Get(tokenContextKey)
	if !exists {
		return "", false
	}
	return token.(string), true
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/speakaboutai/micdrop-go/internal/application/services"
	"github.com/speakaboutai/micdrop-go/internal/domain/user"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "micdrop_session"

const userContextKey = "currentUser"

// AuthRequired resolves the session token from the cookie or Authorization
// header and aborts with 401 when neither yields a valid account.
func AuthRequired(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		u, err := authService.Authenticate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			c.Abort()
			return
		}

		c.Set(userContextKey, u)
		c.Next()
	}
}

// OptionalAuth resolves the session when one is present but never aborts.
// Public page requests use it to detect the owner previewing a draft.
func OptionalAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			if u, err := authService.Authenticate(token); err == nil {
				c.Set(userContextKey, u)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated account for the request, if any.
func CurrentUser(c *gin.Context) (*user.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	u, ok := value.(*user.User)
	return u, ok
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/notesvault/notes-service/internal/services"
)

// SessionCookieName is the cookie browsers carry the session token in; API
// clients use the Authorization header instead.
const SessionCookieName = "nv_session"

// SessionAuthMiddleware authenticates requests against the session store.
// Every authenticated request also refreshes the session's activity
// timestamp through AuthService.GetCurrentUser.
type SessionAuthMiddleware struct {
	auth services.AuthService
}

func NewSessionAuthMiddleware(auth services.AuthService) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{auth: auth}
}

// AuthMiddleware returns a Gin middleware that requires a valid session.
func (m *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "login required",
			})
			c.Abort()
			return
		}

		user, session, err := m.auth.GetCurrentUser(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrSessionExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "unauthorized",
					"message": "session is invalid or expired, please log in again",
				})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "internal",
					"message": "failed to validate session",
				})
			}
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_email", user.Email)
		c.Set("session", session)
		c.Set("session_token", session.Token)

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

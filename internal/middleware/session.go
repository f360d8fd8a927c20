package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionIDKey is the gin context key holding the anonymous session id.
const SessionIDKey = "sessionID"

const sessionCookie = "sid"

// sessionMaxAge keeps the anonymous cookie alive long enough to span
// the register/login detour of an invite link.
const sessionMaxAge = 60 * 60 * 24 * 7

// SessionMiddleware assigns every browser an opaque session id cookie.
// The id names the per-session slot in the pending-invite store; it is
// the only session state the server keeps.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetCookie(sessionCookie, sid, sessionMaxAge, "/", "", false, true)
		}
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

// SessionID returns the request's session id, or "" when the
// middleware did not run.
func SessionID(c *gin.Context) string {
	sid, _ := c.Get(SessionIDKey)
	s, _ := sid.(string)
	return s
}

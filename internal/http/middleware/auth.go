// README: Caller identity middleware; the upstream gateway authenticates and forwards the user id.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"relay/internal/types"
)

const (
	// UserIDHeader carries the authenticated user id set by the gateway.
	UserIDHeader = "X-User-ID"
	callerKey    = "caller_uid"
)

// Identity copies the caller id from UserIDHeader into the gin context. It never rejects.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(UserIDHeader)); uid != "" {
			c.Set(callerKey, types.ID(uid))
		}
		c.Next()
	}
}

// RequireCaller rejects requests that carry no caller id.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerUID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}
		c.Next()
	}
}

// CallerUID returns the caller id set by Identity, or "".
func CallerUID(c *gin.Context) types.ID {
	v, ok := c.Get(callerKey)
	if !ok {
		return ""
	}
	uid, _ := v.(types.ID)
	return uid
}

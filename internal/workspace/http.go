package workspace

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/auth"
)

// SessionFor resolves the caller's session, answering 401 when there is no user.
func SessionFor(c *gin.Context, reg *Registry) (*Session, bool) {
	s, err := reg.Session(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "authentication required"})
		return nil, false
	}
	return s, true
}

// Register mounts the notification feed.
func Register(rg *gin.RouterGroup, reg *Registry) {
	rg.GET("/notifications", func(c *gin.Context) {
		s, ok := SessionFor(c, reg)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "notifications": s.Notifications.Drain()})
	})
}


package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// UserID returns the authenticated user's id set by the auth middleware.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// Email returns the verified email claim, if the token carried one.
func Email(c *gin.Context) string {
	return c.GetString(CtxEmail)
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/auth"
	"github.com/deskhq/desk-backend/internal/logging"
)

// TokenVerifier is satisfied by *firebase auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuth validates Firebase ID tokens and stores the uid on the request.
func FirebaseAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			unauthorized(c)
			return
		}

		decoded, err := v.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			logging.FromContext(c.Request.Context()).Warnf("auth.verify", "invalid token: %v", err)
			unauthorized(c)
			return
		}

		email, _ := decoded.Claims["email"].(string)
		setUser(c, decoded.UID, email)
		c.Next()
	}
}

// HeaderAuth trusts the X-User-Id header. Development only.
func HeaderAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			unauthorized(c)
			return
		}
		setUser(c, uid, strings.TrimSpace(c.GetHeader("X-User-Email")))
		c.Next()
	}
}

func setUser(c *gin.Context, uid, email string) {
	c.Set(auth.CtxUserID, uid)
	if email != "" {
		c.Set(auth.CtxEmail, email)
	}
	c.Request = c.Request.WithContext(logging.WithUserID(c.Request.Context(), uid))
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "authentication required"})
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}

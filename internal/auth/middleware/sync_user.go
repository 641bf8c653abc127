package middleware

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/auth"
	"github.com/deskhq/desk-backend/internal/auth/domain"
	"github.com/deskhq/desk-backend/internal/logging"
)

// UserSyncer records a signed-in user.
type UserSyncer interface {
	SyncUser(ctx context.Context, req *domain.SyncRequest) (*domain.User, error)
}

// EnsureUser upserts each authenticated user once per process. Sync failures
// are logged and do not block the request.
func EnsureUser(s UserSyncer) gin.HandlerFunc {
	var seen sync.Map
	return func(c *gin.Context) {
		uid := auth.UserID(c)
		if uid == "" {
			c.Next()
			return
		}
		if _, ok := seen.Load(uid); !ok {
			ctx := c.Request.Context()
			if _, err := s.SyncUser(ctx, &domain.SyncRequest{UID: uid, Email: auth.Email(c)}); err != nil {
				logging.FromContext(ctx).Error("auth.ensure_user", err)
			} else {
				seen.Store(uid, struct{}{})
			}
		}
		c.Next()
	}
}

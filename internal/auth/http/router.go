package http

import (
	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/auth/service"
)

// Handler serves the signed-in user's own profile. Every route expects the
// auth middleware to have put the uid on the request.
type Handler struct {
	users *service.AuthService
}

func New(users *service.AuthService) *Handler {
	return &Handler{users: users}
}

// Register mounts the profile routes under rg (normally /api/v1/auth):
//
//	GET  /profile  the stored profile
//	POST /sync     upsert from the identity token claims, called after sign-in
//	PUT  /profile  change display name or photo
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/profile", h.GetProfile)
	rg.POST("/sync", h.SyncUser)
	rg.PUT("/profile", h.UpdateProfile)
}

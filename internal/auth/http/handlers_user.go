package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/auth"
	"github.com/deskhq/desk-backend/internal/auth/domain"
	"github.com/deskhq/desk-backend/internal/logging"
)

// GetProfile returns the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// SyncUser is called by the client right after sign-in. The body is optional.
func (h *Handler) SyncUser(c *gin.Context) {
	uid := auth.UserID(c)
	ctx := c.Request.Context()

	var body struct {
		Email       string `json:"email,omitempty"`
		DisplayName string `json:"display_name,omitempty"`
		PhotoURL    string `json:"photo_url,omitempty"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body"})
			return
		}
	}

	// the verified token claim wins over the body
	email := auth.Email(c)
	if email == "" {
		email = body.Email
	}

	user, err := h.users.SyncUser(ctx, &domain.SyncRequest{
		UID:         uid,
		Email:       email,
		DisplayName: body.DisplayName,
		PhotoURL:    body.PhotoURL,
	})
	if err != nil {
		logging.FromContext(ctx).Error("auth.sync", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to sync user"})
		return
	}

	if err := h.users.RecordLogin(ctx, uid); err != nil {
		logging.FromContext(ctx).Warnf("auth.sync", "record login: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// UpdateProfile updates the user's profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName *string `json:"display_name,omitempty"`
		PhotoURL    *string `json:"photo_url,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), auth.UserID(c), &domain.UpdateRequest{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

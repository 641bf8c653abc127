package domain

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is the profile row of a signed-in account. ID is the identity provider uid.
type User struct {
	ID          string     `json:"id"`
	Email       *string    `json:"email,omitempty"`
	DisplayName *string    `json:"display_name,omitempty"`
	PhotoURL    *string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// SyncRequest carries identity data from a verified token or the client.
// Empty fields keep whatever is already stored.
type SyncRequest struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// UpdateRequest represents data for updating a user
type UpdateRequest struct {
	DisplayName *string
	PhotoURL    *string
}

package http

import (
	"time"

	"github.com/deskhq/desk-backend/internal/httpx"
	"github.com/deskhq/desk-backend/internal/workspace"
)

type Handler struct {
	sessions *workspace.Registry
}

func New(sessions *workspace.Registry) *Handler {
	return &Handler{sessions: sessions}
}

type createTaskReq struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
}

type updateTaskReq struct {
	Title       *string                   `json:"title"`
	Category    *string                   `json:"category"`
	Completed   *bool                     `json:"completed"`
	DueDate     httpx.Nullable[time.Time] `json:"due_date"`
	Description httpx.Nullable[string]    `json:"description"`
}

type completeReq struct {
	Completed *bool `json:"completed"`
}

// viewReq updates the list criteria; absent fields are left as they are.
type viewReq struct {
	Category *string `json:"category"`
	Search   *string `json:"search"`
	Status   *string `json:"status"`
}

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

type createProjectReq struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date"`
	Description *string    `json:"description"`
	Progress    int        `json:"progress"`
}

type updateProjectReq struct {
	Title       *string                   `json:"title"`
	Category    *string                   `json:"category"`
	Progress    *int                      `json:"progress"`
	DueDate     httpx.Nullable[time.Time] `json:"due_date"`
	Description httpx.Nullable[string]    `json:"description"`
}

type viewReq struct {
	Category *string `json:"category"`
	Search   *string `json:"search"`
}

type createSubtaskReq struct {
	Title     string     `json:"title"`
	DueDate   *time.Time `json:"due_date"`
	Completed bool       `json:"completed"`
}

type completeReq struct {
	Completed *bool `json:"completed"`
}

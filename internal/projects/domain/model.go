package domain

import (
	"errors"
	"time"

	"github.com/deskhq/desk-backend/internal/category"
)

var (
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrInvalidCounts   = errors.New("completed tasks cannot exceed total tasks")
	ErrProjectNotFound = errors.New("project not found")
)

// TaskCounts is the denormalised subtask tally shown on a project card.
type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Project groups subtasks. Progress is set by the owner and is not derived
// from the subtask counts.
type Project struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Category    category.Category `json:"category"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Description *string           `json:"description,omitempty"`
	Progress    int               `json:"progress"`
	Tasks       TaskCounts        `json:"tasks"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (p Project) RecordID() string                  { return p.ID }
func (p Project) RecordTitle() string               { return p.Title }
func (p Project) RecordCategory() category.Category { return p.Category }

func (p Project) WithID(id string) Project {
	p.ID = id
	return p
}

// Active reports whether the project still has work left.
func (p Project) Active() bool { return p.Progress < 100 }

func (p Project) Validate() error {
	if !p.Category.Valid() {
		return category.ErrInvalidCategory
	}
	if p.Progress < 0 || p.Progress > 100 {
		return ErrInvalidProgress
	}
	if p.Tasks.Total < 0 || p.Tasks.Completed < 0 || p.Tasks.Completed > p.Tasks.Total {
		return ErrInvalidCounts
	}
	return nil
}

// ProjectTask is a subtask belonging to exactly one project.
type ProjectTask struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (t ProjectTask) RecordID() string                  { return t.ID }
func (t ProjectTask) RecordTitle() string               { return t.Title }
func (t ProjectTask) RecordCategory() category.Category { return "" }
func (t ProjectTask) IsCompleted() bool                 { return t.Completed }

func (t ProjectTask) WithID(id string) ProjectTask {
	t.ID = id
	return t
}

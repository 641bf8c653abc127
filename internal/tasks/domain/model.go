package domain

import (
	"time"

	"github.com/deskhq/desk-backend/internal/category"
)

// Task is a single to-do owned by one user.
type Task struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Completed   bool              `json:"completed"`
	Category    category.Category `json:"category"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Description *string           `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (t Task) RecordID() string                  { return t.ID }
func (t Task) RecordTitle() string               { return t.Title }
func (t Task) RecordCategory() category.Category { return t.Category }
func (t Task) IsCompleted() bool                 { return t.Completed }

func (t Task) WithID(id string) Task {
	t.ID = id
	return t
}

// DueOn reports whether the task is due on the same calendar day as day, in day's location.
func (t Task) DueOn(day time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	y1, m1, d1 := t.DueDate.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

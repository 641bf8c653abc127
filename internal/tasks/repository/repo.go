package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/store"
	"github.com/deskhq/desk-backend/internal/tasks/domain"
)

// TaskRepository maps task rows to domain tasks.
type TaskRepository struct {
	client store.Client
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(client store.Client) *TaskRepository {
	return &TaskRepository{client: client}
}

// List returns the user's tasks, newest first.
func (r *TaskRepository) List(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := r.client.Select(ctx, store.TableTasks, userID, store.ByCreatedDesc())
	if err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Create inserts the task and returns the stored row.
func (r *TaskRepository) Create(ctx context.Context, userID string, t domain.Task) (domain.Task, error) {
	if !t.Category.Valid() {
		return domain.Task{}, category.ErrInvalidCategory
	}
	row := store.Row{
		"title":       t.Title,
		"completed":   t.Completed,
		"category":    string(t.Category),
		"due_date":    store.Nullable(t.DueDate),
		"description": store.Nullable(t.Description),
	}
	if t.ID != "" {
		row[store.ColID] = t.ID
	}

	rows, err := r.client.Insert(ctx, store.TableTasks, userID, row)
	if err != nil {
		return domain.Task{}, err
	}
	if len(rows) != 1 {
		return domain.Task{}, fmt.Errorf("insert task: expected 1 row, got %d", len(rows))
	}
	return fromRow(rows[0]), nil
}

// Save writes the fields that differ between before and after.
func (r *TaskRepository) Save(ctx context.Context, userID string, before, after domain.Task) (domain.Task, error) {
	if !after.Category.Valid() {
		return domain.Task{}, category.ErrInvalidCategory
	}
	patch := diff(before, after)
	if len(patch) == 0 {
		return after, nil
	}

	rows, err := r.client.Update(ctx, store.TableTasks, userID, store.Query{ID: after.ID}, patch)
	if err != nil {
		return domain.Task{}, err
	}
	if len(rows) == 0 {
		return domain.Task{}, store.ErrNoRows
	}
	return fromRow(rows[0]), nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	n, err := r.client.Delete(ctx, store.TableTasks, userID, store.Query{ID: id})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNoRows
	}
	return nil
}

func diff(before, after domain.Task) store.Row {
	patch := store.Row{}
	if before.Title != after.Title {
		patch["title"] = after.Title
	}
	if before.Completed != after.Completed {
		patch["completed"] = after.Completed
	}
	if before.Category != after.Category {
		patch["category"] = string(after.Category)
	}
	if !sameTime(before.DueDate, after.DueDate) {
		patch["due_date"] = store.Nullable(after.DueDate)
	}
	if !sameString(before.Description, after.Description) {
		patch["description"] = store.Nullable(after.Description)
	}
	return patch
}

func fromRow(row store.Row) domain.Task {
	return domain.Task{
		ID:          row.String("id"),
		Title:       row.String("title"),
		Completed:   row.Bool("completed"),
		Category:    category.Category(row.String("category")),
		DueDate:     row.OptTime("due_date"),
		Description: row.OptString("description"),
		CreatedAt:   row.Time("created_at"),
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

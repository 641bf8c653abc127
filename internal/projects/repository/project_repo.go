package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/projects/domain"
	"github.com/deskhq/desk-backend/internal/store"
)

// ProjectRepository maps project rows to domain projects.
type ProjectRepository struct {
	client store.Client
}

func NewProjectRepository(client store.Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

// List returns the user's projects, newest first.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.client.Select(ctx, store.TableProjects, userID, store.ByCreatedDesc())
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		out = append(out, projectFromRow(row))
	}
	return out, nil
}

func (r *ProjectRepository) Get(ctx context.Context, userID, id string) (domain.Project, error) {
	row, err := r.client.SelectOne(ctx, store.TableProjects, userID, store.Query{ID: id})
	if errors.Is(err, store.ErrNoRows) {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}
	return projectFromRow(row), nil
}

// Create inserts the project and returns the stored row.
func (r *ProjectRepository) Create(ctx context.Context, userID string, p domain.Project) (domain.Project, error) {
	if err := p.Validate(); err != nil {
		return domain.Project{}, err
	}
	row := store.Row{
		"title":           p.Title,
		"category":        string(p.Category),
		"description":     store.Nullable(p.Description),
		"due_date":        store.Nullable(p.DueDate),
		"progress":        p.Progress,
		"total_tasks":     p.Tasks.Total,
		"completed_tasks": p.Tasks.Completed,
	}
	if p.ID != "" {
		row[store.ColID] = p.ID
	}

	rows, err := r.client.Insert(ctx, store.TableProjects, userID, row)
	if err != nil {
		return domain.Project{}, err
	}
	if len(rows) != 1 {
		return domain.Project{}, fmt.Errorf("insert project: expected 1 row, got %d", len(rows))
	}
	return projectFromRow(rows[0]), nil
}

// Save writes the fields that differ between before and after.
func (r *ProjectRepository) Save(ctx context.Context, userID string, before, after domain.Project) (domain.Project, error) {
	if err := after.Validate(); err != nil {
		return domain.Project{}, err
	}
	patch := projectDiff(before, after)
	if len(patch) == 0 {
		return after, nil
	}

	rows, err := r.client.Update(ctx, store.TableProjects, userID, store.Query{ID: after.ID}, patch)
	if err != nil {
		return domain.Project{}, err
	}
	if len(rows) == 0 {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	return projectFromRow(rows[0]), nil
}

// Delete removes the project; its subtasks go with it.
func (r *ProjectRepository) Delete(ctx context.Context, userID, id string) error {
	n, err := r.client.Delete(ctx, store.TableProjects, userID, store.Query{ID: id})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func projectDiff(before, after domain.Project) store.Row {
	patch := store.Row{}
	if before.Title != after.Title {
		patch["title"] = after.Title
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
	if before.Progress != after.Progress {
		patch["progress"] = after.Progress
	}
	if before.Tasks.Total != after.Tasks.Total {
		patch["total_tasks"] = after.Tasks.Total
	}
	if before.Tasks.Completed != after.Tasks.Completed {
		patch["completed_tasks"] = after.Tasks.Completed
	}
	return patch
}

func projectFromRow(row store.Row) domain.Project {
	return domain.Project{
		ID:          row.String("id"),
		Title:       row.String("title"),
		Category:    category.Category(row.String("category")),
		DueDate:     row.OptTime("due_date"),
		Description: row.OptString("description"),
		Progress:    row.Int("progress"),
		Tasks: domain.TaskCounts{
			Total:     row.Int("total_tasks"),
			Completed: row.Int("completed_tasks"),
		},
		CreatedAt: row.Time("created_at"),
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

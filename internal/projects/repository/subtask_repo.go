package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deskhq/desk-backend/internal/projects/domain"
	"github.com/deskhq/desk-backend/internal/store"
)

// SubtaskRepository maps project_tasks rows. Every call is scoped to one project.
type SubtaskRepository struct {
	client store.Client
}

func NewSubtaskRepository(client store.Client) *SubtaskRepository {
	return &SubtaskRepository{client: client}
}

func (r *SubtaskRepository) List(ctx context.Context, userID, projectID string) ([]domain.ProjectTask, error) {
	q := store.ByCreatedDesc()
	q.Eq = store.Row{"project_id": projectID}
	rows, err := r.client.Select(ctx, store.TableProjectTasks, userID, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProjectTask, 0, len(rows))
	for _, row := range rows {
		out = append(out, subtaskFromRow(row))
	}
	return out, nil
}

// Create inserts a subtask under an existing project of the same user.
func (r *SubtaskRepository) Create(ctx context.Context, userID string, t domain.ProjectTask) (domain.ProjectTask, error) {
	if t.ProjectID == "" {
		return domain.ProjectTask{}, domain.ErrProjectNotFound
	}
	if _, err := r.client.SelectOne(ctx, store.TableProjects, userID, store.Query{ID: t.ProjectID}); err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return domain.ProjectTask{}, domain.ErrProjectNotFound
		}
		return domain.ProjectTask{}, err
	}

	row := store.Row{
		"project_id": t.ProjectID,
		"title":      t.Title,
		"completed":  t.Completed,
		"due_date":   store.Nullable(t.DueDate),
	}
	if t.ID != "" {
		row[store.ColID] = t.ID
	}
	rows, err := r.client.Insert(ctx, store.TableProjectTasks, userID, row)
	if err != nil {
		return domain.ProjectTask{}, err
	}
	if len(rows) != 1 {
		return domain.ProjectTask{}, fmt.Errorf("insert project task: expected 1 row, got %d", len(rows))
	}
	return subtaskFromRow(rows[0]), nil
}

func (r *SubtaskRepository) Save(ctx context.Context, userID string, before, after domain.ProjectTask) (domain.ProjectTask, error) {
	patch := store.Row{}
	if before.Title != after.Title {
		patch["title"] = after.Title
	}
	if before.Completed != after.Completed {
		patch["completed"] = after.Completed
	}
	if !sameTime(before.DueDate, after.DueDate) {
		patch["due_date"] = store.Nullable(after.DueDate)
	}
	if len(patch) == 0 {
		return after, nil
	}

	q := store.Query{ID: after.ID, Eq: store.Row{"project_id": after.ProjectID}}
	rows, err := r.client.Update(ctx, store.TableProjectTasks, userID, q, patch)
	if err != nil {
		return domain.ProjectTask{}, err
	}
	if len(rows) == 0 {
		return domain.ProjectTask{}, store.ErrNoRows
	}
	return subtaskFromRow(rows[0]), nil
}

func (r *SubtaskRepository) Delete(ctx context.Context, userID, projectID, id string) error {
	q := store.Query{ID: id, Eq: store.Row{"project_id": projectID}}
	n, err := r.client.Delete(ctx, store.TableProjectTasks, userID, q)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNoRows
	}
	return nil
}

// ForProject adapts the repository to the list source of one project's subtasks.
func (r *SubtaskRepository) ForProject(projectID string) *ProjectSubtasks {
	return &ProjectSubtasks{repo: r, projectID: projectID}
}

// ProjectSubtasks is the subtask source bound to a single project.
type ProjectSubtasks struct {
	repo      *SubtaskRepository
	projectID string
}

func (s *ProjectSubtasks) List(ctx context.Context, userID string) ([]domain.ProjectTask, error) {
	return s.repo.List(ctx, userID, s.projectID)
}

func (s *ProjectSubtasks) Create(ctx context.Context, userID string, t domain.ProjectTask) (domain.ProjectTask, error) {
	t.ProjectID = s.projectID
	return s.repo.Create(ctx, userID, t)
}

func (s *ProjectSubtasks) Save(ctx context.Context, userID string, before, after domain.ProjectTask) (domain.ProjectTask, error) {
	after.ProjectID = s.projectID
	return s.repo.Save(ctx, userID, before, after)
}

func (s *ProjectSubtasks) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, s.projectID, id)
}

func subtaskFromRow(row store.Row) domain.ProjectTask {
	return domain.ProjectTask{
		ID:        row.String("id"),
		ProjectID: row.String("project_id"),
		Title:     row.String("title"),
		Completed: row.Bool("completed"),
		DueDate:   row.OptTime("due_date"),
		CreatedAt: row.Time("created_at"),
	}
}

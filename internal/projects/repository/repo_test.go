package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/projects/domain"
	"github.com/deskhq/desk-backend/internal/store"
	"github.com/deskhq/desk-backend/internal/store/memstore"
)

func TestProjectRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(memstore.New())

	created, err := repo.Create(ctx, "user-1", domain.Project{
		Title: "Website redesign", Category: category.Design,
		Progress: 60, Tasks: domain.TaskCounts{Total: 12, Completed: 7},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 60, created.Progress)
	assert.Equal(t, domain.TaskCounts{Total: 12, Completed: 7}, created.Tasks)

	got, err := repo.Get(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = repo.Get(ctx, "user-2", created.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	after := created
	after.Progress = 75
	saved, err := repo.Save(ctx, "user-1", created, after)
	require.NoError(t, err)
	assert.Equal(t, 75, saved.Progress)
	assert.Equal(t, 7, saved.Tasks.Completed)

	list, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 75, list[0].Progress)

	require.NoError(t, repo.Delete(ctx, "user-1", created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, "user-1", created.ID), domain.ErrProjectNotFound)
}

func TestProjectRepository_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(memstore.New())

	_, err := repo.Create(ctx, "user-1", domain.Project{Title: "x", Category: category.Business, Progress: 120})
	assert.ErrorIs(t, err, domain.ErrInvalidProgress)

	p, err := repo.Create(ctx, "user-1", domain.Project{Title: "x", Category: category.Business})
	require.NoError(t, err)
	bad := p
	bad.Tasks = domain.TaskCounts{Total: 1, Completed: 3}
	_, err = repo.Save(ctx, "user-1", p, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidCounts)
}

func TestSubtaskRepository(t *testing.T) {
	ctx := context.Background()
	client := memstore.New()
	projects := NewProjectRepository(client)
	subtasks := NewSubtaskRepository(client)

	p, err := projects.Create(ctx, "user-1", domain.Project{Title: "Launch", Category: category.Business})
	require.NoError(t, err)
	other, err := projects.Create(ctx, "user-1", domain.Project{Title: "Other", Category: category.Personal})
	require.NoError(t, err)

	src := subtasks.ForProject(p.ID)

	t.Run("create under missing project", func(t *testing.T) {
		_, err := subtasks.ForProject("nope").Create(ctx, "user-1", domain.ProjectTask{Title: "x"})
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("create is bound to the project", func(t *testing.T) {
		created, err := src.Create(ctx, "user-1", domain.ProjectTask{Title: "Write copy", ProjectID: other.ID})
		require.NoError(t, err)
		assert.Equal(t, p.ID, created.ProjectID)

		_, err = subtasks.ForProject(other.ID).Create(ctx, "user-1", domain.ProjectTask{Title: "Elsewhere"})
		require.NoError(t, err)

		list, err := src.List(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Write copy", list[0].Title)
	})

	t.Run("toggle and delete", func(t *testing.T) {
		list, err := src.List(ctx, "user-1")
		require.NoError(t, err)
		before := list[0]
		after := before
		after.Completed = true

		saved, err := src.Save(ctx, "user-1", before, after)
		require.NoError(t, err)
		assert.True(t, saved.Completed)

		assert.ErrorIs(t, subtasks.ForProject(other.ID).Delete(ctx, "user-1", saved.ID), store.ErrNoRows)
		require.NoError(t, src.Delete(ctx, "user-1", saved.ID))
	})

	t.Run("deleting the project cascades", func(t *testing.T) {
		require.NoError(t, projects.Delete(ctx, "user-1", other.ID))
		list, err := subtasks.List(ctx, "user-1", other.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

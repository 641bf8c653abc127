package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/store"
	"github.com/deskhq/desk-backend/internal/store/memstore"
	"github.com/deskhq/desk-backend/internal/tasks/domain"
)

func strPtr(s string) *string { return &s }

func TestTaskRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(memstore.New())
	due := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	first, err := repo.Create(ctx, "user-1", domain.Task{
		ID: "t1", Title: "Prepare tax documents", Category: category.Finance,
		DueDate: &due, Description: strPtr("Gather receipts for Q1 expenses"),
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	require.NotNil(t, first.DueDate)
	assert.True(t, due.Equal(*first.DueDate))

	_, err = repo.Create(ctx, "user-1", domain.Task{Title: "Schedule photoshoot", Category: category.Design})
	require.NoError(t, err)

	tasks, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Schedule photoshoot", tasks[0].Title)
	assert.NotEmpty(t, tasks[0].ID)
	assert.Nil(t, tasks[0].Description)
	assert.Equal(t, "Gather receipts for Q1 expenses", *tasks[1].Description)

	other, err := repo.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTaskRepository_CreateRejectsUnknownCategory(t *testing.T) {
	repo := NewTaskRepository(memstore.New())
	_, err := repo.Create(context.Background(), "user-1", domain.Task{Title: "x", Category: "chores"})
	assert.ErrorIs(t, err, category.ErrInvalidCategory)
}

func TestTaskRepository_SaveWritesOnlyChanges(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(memstore.New())

	created, err := repo.Create(ctx, "user-1", domain.Task{Title: "Walk the dog", Category: category.Personal})
	require.NoError(t, err)

	after := created
	after.Completed = true
	saved, err := repo.Save(ctx, "user-1", created, after)
	require.NoError(t, err)
	assert.True(t, saved.Completed)
	assert.Equal(t, "Walk the dog", saved.Title)

	assert.Empty(t, diff(saved, saved))
	assert.Equal(t, store.Row{"completed": true}, diff(created, after))

	again, err := repo.Save(ctx, "user-1", saved, saved)
	require.NoError(t, err)
	assert.Equal(t, saved, again)
}

func TestTaskRepository_SaveMissingRow(t *testing.T) {
	repo := NewTaskRepository(memstore.New())
	before := domain.Task{ID: "ghost", Title: "a", Category: category.Urgent}
	after := before
	after.Completed = true

	_, err := repo.Save(context.Background(), "user-1", before, after)
	assert.ErrorIs(t, err, store.ErrNoRows)
}

func TestTaskRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(memstore.New())
	created, err := repo.Create(ctx, "user-1", domain.Task{Title: "Call accountant", Category: category.Finance})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, "user-2", created.ID), store.ErrNoRows)
	require.NoError(t, repo.Delete(ctx, "user-1", created.ID))

	tasks, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDiffOptionalFields(t *testing.T) {
	d1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.In(time.FixedZone("IST", 2*3600))

	a := domain.Task{DueDate: &d1, Description: strPtr("x")}
	b := domain.Task{DueDate: &d2, Description: strPtr("x")}
	assert.Empty(t, diff(a, b), "equal instants in different zones are unchanged")

	c := domain.Task{}
	patch := diff(a, c)
	assert.Contains(t, patch, "due_date")
	assert.Nil(t, patch["due_date"])
	assert.Nil(t, patch["description"])
}

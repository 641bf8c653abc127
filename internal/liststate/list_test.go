package liststate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/listing"
	"github.com/deskhq/desk-backend/internal/notify"
	"github.com/deskhq/desk-backend/internal/store"
)

type rec struct {
	ID       string
	Title    string
	Category category.Category
	Done     bool
	Server   bool
}

func (r rec) RecordID() string                  { return r.ID }
func (r rec) RecordTitle() string               { return r.Title }
func (r rec) RecordCategory() category.Category { return r.Category }
func (r rec) IsCompleted() bool                 { return r.Done }
func (r rec) WithID(id string) rec              { r.ID = id; return r }

type fakeSource struct {
	mu        sync.Mutex
	rows      []rec
	listErr   error
	createErr error
	saveErr   error
	deleteErr error

	listCalls   int
	createCalls int
	saveCalls   int
	saved       []rec

	saveGate chan struct{}
	listGate chan struct{}
}

func (f *fakeSource) List(ctx context.Context, userID string) ([]rec, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]rec, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeSource) Create(ctx context.Context, userID string, r rec) (rec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return rec{}, f.createErr
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Server = true
	f.rows = append([]rec{r}, f.rows...)
	return r, nil
}

func (f *fakeSource) Save(ctx context.Context, userID string, before, after rec) (rec, error) {
	f.mu.Lock()
	f.saveCalls++
	gate := f.saveGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return rec{}, f.saveErr
	}
	after.Server = true
	f.saved = append(f.saved, after)
	return after, nil
}

func (f *fakeSource) Delete(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

var labels = Labels{Singular: "Task", Plural: "tasks"}

func seeded() *fakeSource {
	return &fakeSource{rows: []rec{
		{ID: "1", Title: "Walk the dog", Category: category.Personal, Done: true},
		{ID: "2", Title: "Reply to supplier", Category: category.Business},
		{ID: "3", Title: "Prepare tax documents", Category: category.Finance},
	}}
}

func loaded(t *testing.T, src *fakeSource) (*List[rec], *notify.Queue) {
	t.Helper()
	q := notify.NewQueue(0)
	l := New[rec]("user-1", src, q, labels)
	require.NoError(t, l.Load(context.Background()))
	require.Equal(t, StateLoaded, l.State())
	return l, q
}

func TestLoad_WithoutUser(t *testing.T) {
	src := seeded()
	l := New[rec]("", src, nil, labels)

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, StateIdle, l.State())
	assert.Empty(t, l.Items())
	assert.Zero(t, src.listCalls)
}

func TestLoad_Success(t *testing.T) {
	src := seeded()
	l, q := loaded(t, src)

	assert.Len(t, l.Items(), 3)
	assert.Equal(t, "1", l.Items()[0].ID)
	assert.Zero(t, q.Len())

	// mounting again does not refetch
	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, 1, src.listCalls)

	src.rows = append(src.rows, rec{ID: "4", Title: "Call accountant", Category: category.Finance})
	require.NoError(t, l.Refetch(context.Background()))
	assert.Equal(t, 2, src.listCalls)
	assert.Len(t, l.Items(), 4)
	assert.Equal(t, StateLoaded, l.State())
}

func TestLoad_Failure(t *testing.T) {
	src := seeded()
	src.listErr = errors.New("network down")
	q := notify.NewQueue(0)
	l := New[rec]("user-1", src, q, labels)

	err := l.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateErrored, l.State())
	assert.Empty(t, l.Items())

	n := q.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, notify.VariantDestructive, n[0].Variant)

	// no automatic retry
	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, 1, src.listCalls)

	src.listErr = nil
	require.NoError(t, l.Refetch(context.Background()))
	assert.Equal(t, StateLoaded, l.State())
}

func TestLoad_StaleResponseIsDropped(t *testing.T) {
	src := seeded()
	gate := make(chan struct{})
	src.listGate = gate
	l := New[rec]("user-1", src, nil, labels)

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.listCalls == 1
	}, timeout, tick)

	src.mu.Lock()
	src.listGate = nil
	src.mu.Unlock()
	require.NoError(t, l.Refetch(context.Background()))
	assert.Equal(t, StateLoaded, l.State())

	src.mu.Lock()
	src.listErr = errors.New("late failure")
	src.mu.Unlock()
	close(gate)
	<-done

	assert.Equal(t, StateLoaded, l.State())
	assert.Len(t, l.Items(), 3)
}

func TestAdd_BlankTitleIsIgnored(t *testing.T) {
	src := seeded()
	l, q := loaded(t, src)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, added, err := l.Add(context.Background(), rec{Title: title, Category: category.Personal})
		require.NoError(t, err)
		assert.False(t, added)
	}

	assert.Len(t, l.Items(), 3)
	assert.Zero(t, src.createCalls)
	assert.Zero(t, q.Len())
}

func TestAdd_PrependsCanonicalRow(t *testing.T) {
	src := seeded()
	q := notify.NewQueue(0)
	l := New[rec]("user-1", src, q, labels, WithIDGenerator[rec](func() string { return "new-id" }))
	require.NoError(t, l.Load(context.Background()))

	created, added, err := l.Add(context.Background(), rec{Title: "  Call accountant ", Category: category.Finance})
	require.NoError(t, err)
	require.True(t, added)

	items := l.Items()
	require.Len(t, items, 4)
	assert.Equal(t, created, items[0])
	assert.Equal(t, "new-id", items[0].ID)
	assert.Equal(t, "Call accountant", items[0].Title)
	assert.True(t, items[0].Server)
	assert.Equal(t, "1", items[1].ID)

	n := q.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, "Task created", n[0].Title)
	assert.Equal(t, "Call accountant has been added to your tasks.", n[0].Description)
}

func TestAdd_KeepsProvidedID(t *testing.T) {
	l, _ := loaded(t, seeded())

	created, added, err := l.Add(context.Background(), rec{ID: "custom", Title: "Order business cards", Category: category.Business})
	require.NoError(t, err)
	require.True(t, added)
	assert.Equal(t, "custom", created.ID)
}

func TestAdd_FailureLeavesStateUnchanged(t *testing.T) {
	src := seeded()
	l, q := loaded(t, src)
	src.createErr = errors.New("validation failed")

	_, added, err := l.Add(context.Background(), rec{Title: "Schedule photoshoot", Category: category.Design})
	require.Error(t, err)
	assert.False(t, added)
	assert.Len(t, l.Items(), 3)

	n := q.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, notify.VariantDestructive, n[0].Variant)
}

func TestAdd_WithoutUser(t *testing.T) {
	src := seeded()
	q := notify.NewQueue(0)
	l := New[rec]("", src, q, labels)

	_, added, err := l.Add(context.Background(), rec{Title: "x", Category: category.Personal})
	assert.ErrorIs(t, err, store.ErrAuthRequired)
	assert.False(t, added)
	assert.Zero(t, src.createCalls)
	require.Len(t, q.Drain(), 1)
}

func toggle(done bool) func(rec) rec {
	return func(r rec) rec { r.Done = done; return r }
}

func TestUpdate_TogglesOnlyThatRecord(t *testing.T) {
	src := seeded()
	l, _ := loaded(t, src)
	before := l.Items()

	saved, err := l.Update(context.Background(), "2", toggle(true))
	require.NoError(t, err)
	assert.True(t, saved.Done)

	after := l.Items()
	require.Len(t, after, 3)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
	assert.True(t, after[1].Done)
	assert.Equal(t, before[1].Title, after[1].Title)
	assert.Equal(t, before[1].Category, after[1].Category)
	require.Len(t, src.saved, 1)
}

func TestUpdate_IsOptimistic(t *testing.T) {
	src := seeded()
	l, _ := loaded(t, src)
	gate := make(chan struct{})
	src.saveGate = gate

	done := make(chan error, 1)
	go func() {
		_, err := l.Update(context.Background(), "3", toggle(true))
		done <- err
	}()

	require.Eventually(t, func() bool {
		r, _ := l.Get("3")
		return r.Done
	}, timeout, tick)

	close(gate)
	require.NoError(t, <-done)
	r, _ := l.Get("3")
	assert.True(t, r.Server)
}

func TestUpdate_OverlappingWrites(t *testing.T) {
	retitle := func(title string) func(rec) rec {
		return func(r rec) rec { r.Title = title; return r }
	}
	saveCalls := func(src *fakeSource) func() bool {
		return func() bool {
			src.mu.Lock()
			defer src.mu.Unlock()
			return src.saveCalls == 1
		}
	}

	t.Run("failed earlier write keeps the later saved value", func(t *testing.T) {
		src := seeded()
		l, _ := loaded(t, src)
		gate := make(chan struct{})
		src.saveGate = gate

		first := make(chan error, 1)
		go func() {
			_, err := l.Update(context.Background(), "2", toggle(true))
			first <- err
		}()
		require.Eventually(t, saveCalls(src), timeout, tick)

		src.mu.Lock()
		src.saveGate = nil
		src.mu.Unlock()
		second, err := l.Update(context.Background(), "2", retitle("Reply to supplier today"))
		require.NoError(t, err)

		src.mu.Lock()
		src.saveErr = errors.New("timeout")
		src.mu.Unlock()
		close(gate)
		require.Error(t, <-first)

		got, ok := l.Get("2")
		require.True(t, ok)
		assert.Equal(t, second, got)
		assert.Equal(t, "Reply to supplier today", got.Title)
		assert.True(t, got.Server)
	})

	t.Run("failed later write restores the acknowledged value", func(t *testing.T) {
		src := seeded()
		l, _ := loaded(t, src)
		original, _ := l.Get("2")
		gate := make(chan struct{})
		src.saveGate = gate

		first := make(chan error, 1)
		go func() {
			_, err := l.Update(context.Background(), "2", toggle(true))
			first <- err
		}()
		require.Eventually(t, saveCalls(src), timeout, tick)

		src.mu.Lock()
		src.saveGate = nil
		src.saveErr = errors.New("timeout")
		src.mu.Unlock()
		_, err := l.Update(context.Background(), "2", retitle("Reply to supplier today"))
		require.Error(t, err)

		got, _ := l.Get("2")
		assert.Equal(t, original, got)

		close(gate)
		require.Error(t, <-first)
		got, _ = l.Get("2")
		assert.Equal(t, original, got)
	})

	t.Run("successful earlier write does not clobber a pending later one", func(t *testing.T) {
		src := seeded()
		l, _ := loaded(t, src)
		gate := make(chan struct{})
		src.saveGate = gate

		first := make(chan error, 1)
		go func() {
			_, err := l.Update(context.Background(), "2", toggle(true))
			first <- err
		}()
		require.Eventually(t, saveCalls(src), timeout, tick)

		second := make(chan error, 1)
		go func() {
			_, err := l.Update(context.Background(), "2", retitle("Reply to supplier today"))
			second <- err
		}()
		require.Eventually(t, func() bool {
			src.mu.Lock()
			defer src.mu.Unlock()
			return src.saveCalls == 2
		}, timeout, tick)

		close(gate)
		require.NoError(t, <-first)
		require.NoError(t, <-second)
		got, _ := l.Get("2")
		assert.Equal(t, "Reply to supplier today", got.Title)
		assert.True(t, got.Done)
		assert.True(t, got.Server)
	})
}

func TestUpdate_RevertsOnFailure(t *testing.T) {
	src := seeded()
	l, q := loaded(t, src)
	src.saveErr = errors.New("timeout")

	_, err := l.Update(context.Background(), "2", toggle(true))
	require.Error(t, err)

	r, ok := l.Get("2")
	require.True(t, ok)
	assert.False(t, r.Done)

	n := q.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, notify.VariantDestructive, n[0].Variant)
}

func TestUpdate_Errors(t *testing.T) {
	src := seeded()
	l, _ := loaded(t, src)

	_, err := l.Update(context.Background(), "missing", toggle(true))
	assert.ErrorIs(t, err, ErrNotFound)

	r, err := l.Update(context.Background(), "1", func(r rec) rec { r.Title = "  "; return r })
	require.NoError(t, err)
	assert.Equal(t, "Walk the dog", r.Title)
	assert.Zero(t, src.saveCalls)
}

func TestRemove(t *testing.T) {
	src := seeded()
	l, q := loaded(t, src)
	l.Select("2")

	require.NoError(t, l.Remove(context.Background(), "2"))
	assert.Len(t, l.Items(), 2)
	_, ok := l.Selected()
	assert.False(t, ok)
	require.Len(t, q.Drain(), 1)

	assert.ErrorIs(t, l.Remove(context.Background(), "2"), ErrNotFound)

	src.deleteErr = errors.New("fk violation")
	require.Error(t, l.Remove(context.Background(), "1"))
	assert.Len(t, l.Items(), 2)
}

func TestFilterAndSearchScenario(t *testing.T) {
	src := &fakeSource{rows: []rec{
		{ID: "a", Title: "Walk the dog", Category: category.Personal, Done: true},
		{ID: "b", Title: "Reply to supplier", Category: category.Business},
	}}
	l, _ := loaded(t, src)

	personal := category.Personal
	l.SetFilter(&personal)
	got := l.Filtered()
	require.Len(t, got, 1)
	assert.Equal(t, "Walk the dog", got[0].Title)

	l.SetFilter(nil)
	l.SetSearchTerm("supplier")
	got = l.Filtered()
	require.Len(t, got, 1)
	assert.Equal(t, "Reply to supplier", got[0].Title)

	l.SetSearchTerm("")
	l.SetStatus(listing.StatusCompleted)
	view := l.View()
	assert.Equal(t, 2, view.Total)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "a", view.Items[0].ID)
	assert.Equal(t, StateLoaded, view.State)
}

func TestSetFilterCopiesValue(t *testing.T) {
	l, _ := loaded(t, seeded())
	c := category.Finance
	l.SetFilter(&c)
	c = category.Urgent

	crit := l.Criteria()
	require.NotNil(t, crit.Category)
	assert.Equal(t, category.Finance, *crit.Category)
}

func TestSelect(t *testing.T) {
	l, _ := loaded(t, seeded())

	_, ok := l.Selected()
	assert.False(t, ok)

	l.Select("3")
	r, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "Prepare tax documents", r.Title)

	l.Select("nope")
	_, ok = l.Selected()
	assert.False(t, ok)
	assert.Equal(t, "nope", l.View().Selected)
}

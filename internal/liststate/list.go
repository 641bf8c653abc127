// Package liststate owns the in-session collection of one record type for one
// user: fetch state, filter/search criteria, selection, and the write-through
// to the row store.
package liststate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/listing"
	"github.com/deskhq/desk-backend/internal/logging"
	"github.com/deskhq/desk-backend/internal/notify"
	"github.com/deskhq/desk-backend/internal/store"
)

type FetchState string

const (
	StateIdle    FetchState = "idle"
	StateLoading FetchState = "loading"
	StateLoaded  FetchState = "loaded"
	StateErrored FetchState = "errored"
)

var ErrNotFound = errors.New("record not found")

// Item is a record held by a List. WithID returns a copy carrying the given id.
type Item[T any] interface {
	listing.Record
	RecordID() string
	WithID(id string) T
}

// Source persists records for one user. Create and Save return the canonical
// stored record; Save receives the previous value so it can write only what changed.
type Source[T any] interface {
	List(ctx context.Context, userID string) ([]T, error)
	Create(ctx context.Context, userID string, rec T) (T, error)
	Save(ctx context.Context, userID string, before, after T) (T, error)
	Delete(ctx context.Context, userID, id string) error
}

// Labels name the record type in notifications, e.g. {"Project", "projects"}.
type Labels struct {
	Singular string
	Plural   string
}

// View is a read-only snapshot of the list as the page renders it.
type View[T any] struct {
	Items    []T              `json:"items"`
	Total    int              `json:"total"`
	Criteria listing.Criteria `json:"criteria"`
	Selected string           `json:"selected,omitempty"`
	State    FetchState       `json:"state"`
}

type List[T Item[T]] struct {
	mu       sync.Mutex
	userID   string
	src      Source[T]
	notifier notify.Notifier
	labels   Labels
	newID    func() string

	items    []T
	criteria listing.Criteria
	selected string
	state    FetchState
	loadGen  uint64
	pending  map[string]*pendingWrite[T]
}

// pendingWrite tracks the writes in flight for one record. confirmed is the
// last value the store acknowledged; version bumps on every Update.
type pendingWrite[T any] struct {
	confirmed T
	version   uint64
	inflight  int
}

// Option customises a List.
type Option[T Item[T]] func(*List[T])

// WithIDGenerator replaces uuid.NewString for new records.
func WithIDGenerator[T Item[T]](gen func() string) Option[T] {
	return func(l *List[T]) { l.newID = gen }
}

func New[T Item[T]](userID string, src Source[T], n notify.Notifier, labels Labels, opts ...Option[T]) *List[T] {
	if n == nil {
		n = notify.Discard
	}
	l := &List[T]{
		userID:   userID,
		src:      src,
		notifier: n,
		labels:   labels,
		newID:    uuid.NewString,
		state:    StateIdle,
		criteria: listing.Criteria{Status: listing.StatusAll},
		pending:  make(map[string]*pendingWrite[T]),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load fetches the collection once. Without a user it leaves an empty, idle
// list. Later calls are no-ops; use Refetch to reload.
func (l *List[T]) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.state == StateLoading || l.state == StateLoaded || l.state == StateErrored {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()
	return l.fetch(ctx)
}

// Refetch reloads the collection from the store regardless of state.
func (l *List[T]) Refetch(ctx context.Context) error {
	return l.fetch(ctx)
}

func (l *List[T]) fetch(ctx context.Context) error {
	l.mu.Lock()
	if l.userID == "" {
		l.items = nil
		l.state = StateIdle
		l.mu.Unlock()
		return nil
	}
	l.state = StateLoading
	l.loadGen++
	gen := l.loadGen
	l.mu.Unlock()

	recs, err := l.src.List(ctx, l.userID)

	l.mu.Lock()
	if gen != l.loadGen {
		// a newer fetch owns the result
		l.mu.Unlock()
		return err
	}
	if err != nil {
		l.items = nil
		l.state = StateErrored
		l.mu.Unlock()

		logging.FromContext(ctx).Error("list."+l.labels.Plural+".load", err)
		l.notifier.Notify(ctx, notify.Failure("Error", fmt.Sprintf("Could not load your %s.", l.labels.Plural)))
		return err
	}
	l.items = recs
	l.state = StateLoaded
	l.mu.Unlock()
	return nil
}

// Add validates the title, writes the record and, once the store confirms,
// prepends the canonical row. A blank title is ignored: added is false and
// nothing is written or notified.
func (l *List[T]) Add(ctx context.Context, rec T) (created T, added bool, err error) {
	if strings.TrimSpace(rec.RecordTitle()) == "" {
		return created, false, nil
	}
	if l.userID == "" {
		l.notifier.Notify(ctx, notify.Failure("Authentication required", fmt.Sprintf("Please sign in to add %s.", l.labels.Plural)))
		return created, false, store.ErrAuthRequired
	}
	if rec.RecordID() == "" {
		rec = rec.WithID(l.newID())
	}

	created, err = l.src.Create(ctx, l.userID, rec)
	if err != nil {
		logging.FromContext(ctx).Error("list."+l.labels.Plural+".add", err)
		l.notifier.Notify(ctx, notify.Failure("Error", fmt.Sprintf("Could not create %s.", strings.ToLower(l.labels.Singular))))
		var zero T
		return zero, false, err
	}

	l.mu.Lock()
	l.items = append([]T{created}, l.items...)
	l.mu.Unlock()

	l.notifier.Notify(ctx, notify.Success(
		l.labels.Singular+" created",
		fmt.Sprintf("%s has been added to your %s.", created.RecordTitle(), l.labels.Plural),
	))
	return created, true, nil
}

// Update applies mutate locally right away, writes it, and reverts the record
// if the write fails. A mutation that blanks the title is ignored.
//
// Overlapping updates of one record resolve in call order: a write that has
// been superseded by a later Update never touches the local copy. When the
// latest write fails the record goes back to the last value the store
// acknowledged.
func (l *List[T]) Update(ctx context.Context, id string, mutate func(T) T) (T, error) {
	var zero T
	if l.userID == "" {
		l.notifier.Notify(ctx, notify.Failure("Authentication required", "Please sign in to make changes."))
		return zero, store.ErrAuthRequired
	}

	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return zero, ErrNotFound
	}
	before := l.items[idx]
	after := mutate(before).WithID(before.RecordID())
	if strings.TrimSpace(after.RecordTitle()) == "" {
		l.mu.Unlock()
		return before, nil
	}
	pw, ok := l.pending[id]
	if !ok {
		pw = &pendingWrite[T]{confirmed: before}
		l.pending[id] = pw
	}
	pw.version++
	pw.inflight++
	version := pw.version
	l.items[idx] = after
	l.mu.Unlock()

	saved, err := l.src.Save(ctx, l.userID, before, after)

	l.mu.Lock()
	defer l.mu.Unlock()
	pw.inflight--
	if pw.inflight == 0 && l.pending[id] == pw {
		delete(l.pending, id)
	}
	latest := pw.version == version
	idx = l.indexOf(id)
	if err != nil {
		if latest && idx >= 0 {
			l.items[idx] = pw.confirmed
		}
		logging.FromContext(ctx).Error("list."+l.labels.Plural+".update", err)
		l.notifier.Notify(ctx, notify.Failure("Error", fmt.Sprintf("Could not save %s. Your change was reverted.", before.RecordTitle())))
		return zero, err
	}
	pw.confirmed = saved
	if latest && idx >= 0 {
		l.items[idx] = saved
	}
	return saved, nil
}

// Remove deletes the record remotely and then drops it locally.
func (l *List[T]) Remove(ctx context.Context, id string) error {
	if l.userID == "" {
		l.notifier.Notify(ctx, notify.Failure("Authentication required", "Please sign in to make changes."))
		return store.ErrAuthRequired
	}

	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return ErrNotFound
	}
	title := l.items[idx].RecordTitle()
	l.mu.Unlock()

	if err := l.src.Delete(ctx, l.userID, id); err != nil {
		logging.FromContext(ctx).Error("list."+l.labels.Plural+".remove", err)
		l.notifier.Notify(ctx, notify.Failure("Error", fmt.Sprintf("Could not delete %s.", title)))
		return err
	}

	l.mu.Lock()
	if idx = l.indexOf(id); idx >= 0 {
		l.items = append(l.items[:idx:idx], l.items[idx+1:]...)
	}
	if l.selected == id {
		l.selected = ""
	}
	l.mu.Unlock()

	l.notifier.Notify(ctx, notify.Success(l.labels.Singular+" deleted", fmt.Sprintf("%s has been removed.", title)))
	return nil
}

// Discard deletes a record without notifying success. It undoes an Add whose
// follow-up write failed; a failed delete is logged and returned.
func (l *List[T]) Discard(ctx context.Context, id string) error {
	if err := l.src.Delete(ctx, l.userID, id); err != nil {
		logging.FromContext(ctx).Error("list."+l.labels.Plural+".discard", err)
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx := l.indexOf(id); idx >= 0 {
		l.items = append(l.items[:idx:idx], l.items[idx+1:]...)
	}
	if l.selected == id {
		l.selected = ""
	}
	return nil
}

func (l *List[T]) SetFilter(c *category.Category) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c == nil {
		l.criteria.Category = nil
		return
	}
	v := *c
	l.criteria.Category = &v
}

func (l *List[T]) SetSearchTerm(term string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.criteria.Search = term
}

func (l *List[T]) SetStatus(s listing.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.criteria.Status = s
}

func (l *List[T]) Criteria() listing.Criteria {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyCriteria()
}

// Select marks id as the record shown in the detail view. It does not check that id exists.
func (l *List[T]) Select(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = id
}

// Selected returns the selected record, if it is still in the collection.
func (l *List[T]) Selected() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	if l.selected == "" {
		return zero, false
	}
	if idx := l.indexOf(l.selected); idx >= 0 {
		return l.items[idx], true
	}
	return zero, false
}

func (l *List[T]) Get(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	if idx := l.indexOf(id); idx >= 0 {
		return l.items[idx], true
	}
	return zero, false
}

// Items returns a copy of the full collection in store order.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Filtered applies the current criteria; order follows the collection.
func (l *List[T]) Filtered() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return listing.Apply(l.items, l.criteria)
}

func (l *List[T]) State() FetchState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *List[T]) View() View[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return View[T]{
		Items:    listing.Apply(l.items, l.criteria),
		Total:    len(l.items),
		Criteria: l.copyCriteria(),
		Selected: l.selected,
		State:    l.state,
	}
}

func (l *List[T]) copyCriteria() listing.Criteria {
	c := l.criteria
	if c.Category != nil {
		v := *c.Category
		c.Category = &v
	}
	return c
}

func (l *List[T]) indexOf(id string) int {
	for i, it := range l.items {
		if it.RecordID() == id {
			return i
		}
	}
	return -1
}

// Package workspace keeps one live session per signed-in user. A session owns
// the task, project and subtask lists the pages read and mutate, plus the
// notifications produced by those mutations.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/deskhq/desk-backend/internal/liststate"
	"github.com/deskhq/desk-backend/internal/logging"
	"github.com/deskhq/desk-backend/internal/notify"
	projectdomain "github.com/deskhq/desk-backend/internal/projects/domain"
	"github.com/deskhq/desk-backend/internal/store"
	taskdomain "github.com/deskhq/desk-backend/internal/tasks/domain"
)

const defaultTTL = 30 * time.Minute

// Sources are the row-store repositories behind every session.
type Sources struct {
	Tasks    liststate.Source[taskdomain.Task]
	Projects liststate.Source[projectdomain.Project]
	Subtasks func(projectID string) liststate.Source[projectdomain.ProjectTask]
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	src      Sources
	ttl      time.Duration
	now      func() time.Time
	queueCap int
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithQueueCapacity(n int) Option {
	return func(r *Registry) { r.queueCap = n }
}

// NewRegistry creates a registry whose sessions are dropped after ttl without access.
func NewRegistry(src Sources, ttl time.Duration, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		src:      src,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Session returns the user's session, creating and loading it on first use.
func (r *Registry) Session(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, store.ErrAuthRequired
	}

	now := r.now()
	r.mu.Lock()
	r.sweepLocked(now)
	s, ok := r.sessions[userID]
	if !ok {
		s = r.newSession(userID)
		r.sessions[userID] = s
		logging.FromContext(ctx).Infof("workspace.open", "session opened for user=%s active=%d", userID, len(r.sessions))
	}
	s.touch(now)
	r.mu.Unlock()

	s.mount(ctx)
	return s, nil
}

// Peek returns an existing session without creating or touching it.
func (r *Registry) Peek(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Sweep drops idle sessions and reports how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked(now time.Time) int {
	n := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen()) > r.ttl {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) newSession(userID string) *Session {
	q := notify.NewQueue(r.queueCap)
	return &Session{
		userID:        userID,
		Notifications: q,
		Tasks:         liststate.New[taskdomain.Task](userID, r.src.Tasks, q, liststate.Labels{Singular: "Task", Plural: "tasks"}),
		Projects:      liststate.New[projectdomain.Project](userID, r.src.Projects, q, liststate.Labels{Singular: "Project", Plural: "projects"}),
		subtaskSource: r.src.Subtasks,
		subtasks:      make(map[string]*liststate.List[projectdomain.ProjectTask]),
	}
}

package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/deskhq/desk-backend/internal/liststate"
	"github.com/deskhq/desk-backend/internal/notify"
	projectdomain "github.com/deskhq/desk-backend/internal/projects/domain"
	taskdomain "github.com/deskhq/desk-backend/internal/tasks/domain"
)

// Session is one user's live page state.
type Session struct {
	userID        string
	Notifications *notify.Queue
	Tasks         *liststate.List[taskdomain.Task]
	Projects      *liststate.List[projectdomain.Project]

	mountOnce sync.Once

	mu            sync.Mutex
	seen          time.Time
	subtaskSource func(projectID string) liststate.Source[projectdomain.ProjectTask]
	subtasks      map[string]*liststate.List[projectdomain.ProjectTask]
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) mount(ctx context.Context) {
	s.mountOnce.Do(func() {
		// failures surface as errored lists and a queued notification
		_ = s.Tasks.Load(ctx)
		_ = s.Projects.Load(ctx)
	})
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.seen = now
	s.mu.Unlock()
}

func (s *Session) lastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

// Subtasks returns the loaded subtask list of a project in the session.
func (s *Session) Subtasks(ctx context.Context, projectID string) (*liststate.List[projectdomain.ProjectTask], error) {
	if _, ok := s.Projects.Get(projectID); !ok {
		return nil, projectdomain.ErrProjectNotFound
	}

	s.mu.Lock()
	l, ok := s.subtasks[projectID]
	if !ok {
		l = liststate.New[projectdomain.ProjectTask](
			s.userID, s.subtaskSource(projectID), s.Notifications,
			liststate.Labels{Singular: "Task", Plural: "project tasks"},
		)
		s.subtasks[projectID] = l
	}
	s.mu.Unlock()

	if err := l.Load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// AddSubtask creates a subtask and bumps the parent's task counters. If the
// counter write fails the subtask is deleted again.
func (s *Session) AddSubtask(ctx context.Context, projectID string, t projectdomain.ProjectTask) (projectdomain.ProjectTask, bool, error) {
	list, err := s.Subtasks(ctx, projectID)
	if err != nil {
		return projectdomain.ProjectTask{}, false, err
	}
	t.ProjectID = projectID
	created, added, err := list.Add(ctx, t)
	if err != nil || !added {
		return created, added, err
	}

	_, err = s.Projects.Update(ctx, projectID, func(p projectdomain.Project) projectdomain.Project {
		p.Tasks.Total++
		if created.Completed {
			p.Tasks.Completed++
		}
		return p
	})
	if err != nil {
		// the counters no longer match without the subtask
		if derr := list.Discard(ctx, created.ID); derr != nil {
			err = errors.Join(err, derr)
		}
		return projectdomain.ProjectTask{}, false, err
	}
	return created, true, nil
}

// ToggleSubtask sets a subtask's completion and moves the parent's completed counter with it.
// A failed counter write puts the subtask back.
func (s *Session) ToggleSubtask(ctx context.Context, projectID, id string, completed bool) (projectdomain.ProjectTask, error) {
	list, err := s.Subtasks(ctx, projectID)
	if err != nil {
		return projectdomain.ProjectTask{}, err
	}
	before, ok := list.Get(id)
	if !ok {
		return projectdomain.ProjectTask{}, liststate.ErrNotFound
	}
	if before.Completed == completed {
		return before, nil
	}

	saved, err := list.Update(ctx, id, func(t projectdomain.ProjectTask) projectdomain.ProjectTask {
		t.Completed = completed
		return t
	})
	if err != nil {
		return projectdomain.ProjectTask{}, err
	}

	delta := 1
	if !completed {
		delta = -1
	}
	_, err = s.Projects.Update(ctx, projectID, func(p projectdomain.Project) projectdomain.Project {
		p.Tasks.Completed = clamp(p.Tasks.Completed+delta, 0, p.Tasks.Total)
		return p
	})
	if err != nil {
		if _, rerr := list.Update(ctx, id, func(t projectdomain.ProjectTask) projectdomain.ProjectTask {
			t.Completed = before.Completed
			return t
		}); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return projectdomain.ProjectTask{}, err
	}
	return saved, nil
}

// RemoveProject deletes the project and forgets its subtask list.
func (s *Session) RemoveProject(ctx context.Context, projectID string) error {
	if err := s.Projects.Remove(ctx, projectID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.subtasks, projectID)
	s.mu.Unlock()
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

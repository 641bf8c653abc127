// Package notify holds the transient toasts shown to a user after an action.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/deskhq/desk-backend/internal/logging"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

const defaultCapacity = 50

type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	At          time.Time `json:"at"`
}

// Notifier receives user-visible notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Success builds a default-variant notification.
func Success(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDefault}
}

// Failure builds a destructive notification.
func Failure(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDestructive}
}

// Queue is a bounded FIFO of notifications; the oldest entry is dropped when full.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	cap   int
	now   func() time.Time
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Queue{cap: capacity, now: time.Now}
}

// Notify logs n and queues it for the next Drain.
func (q *Queue) Notify(ctx context.Context, n Notification) {
	if n.Variant == "" {
		n.Variant = VariantDefault
	}
	if n.At.IsZero() {
		n.At = q.now().UTC()
	}

	l := logging.FromContext(ctx)
	if n.Variant == VariantDestructive {
		l.Warnf("notify", "title=%q description=%q", n.Title, n.Description)
	} else {
		l.Infof("notify", "title=%q description=%q", n.Title, n.Description)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	if over := len(q.items) - q.cap; over > 0 {
		q.items = append([]Notification(nil), q.items[over:]...)
	}
}

// Drain returns every pending notification and empties the queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Len reports how many notifications are pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Discard is a Notifier that drops everything.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(context.Context, Notification) {}

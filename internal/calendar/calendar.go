// Package calendar projects dated tasks and projects onto calendar days.
package calendar

import (
	"time"

	"github.com/deskhq/desk-backend/internal/category"
	projectdomain "github.com/deskhq/desk-backend/internal/projects/domain"
	taskdomain "github.com/deskhq/desk-backend/internal/tasks/domain"
)

type EventType string

const (
	EventTask    EventType = "task"
	EventProject EventType = "project"
)

// maxIndicators caps the category dots drawn under a day.
const maxIndicators = 3

type Event struct {
	Type      EventType         `json:"type"`
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Category  category.Category `json:"category"`
	Color     string            `json:"color"`
	Completed *bool             `json:"completed,omitempty"`
	Date      time.Time         `json:"date"`
}

type Indicator struct {
	Category category.Category `json:"category"`
	Color    string            `json:"color"`
}

// Day summarises one calendar day that has at least one event.
type Day struct {
	Date       string      `json:"date"`
	Count      int         `json:"count"`
	Indicators []Indicator `json:"indicators"`
}

// Events builds the event list: tasks first, then projects. Records without a
// due date are skipped.
func Events(tasks []taskdomain.Task, projects []projectdomain.Project) []Event {
	out := make([]Event, 0, len(tasks)+len(projects))
	for _, t := range tasks {
		if t.DueDate == nil || t.DueDate.IsZero() {
			continue
		}
		completed := t.Completed
		out = append(out, Event{
			Type: EventTask, ID: t.ID, Title: t.Title,
			Category: t.Category, Color: t.Category.Color(),
			Completed: &completed, Date: *t.DueDate,
		})
	}
	for _, p := range projects {
		if p.DueDate == nil || p.DueDate.IsZero() {
			continue
		}
		out = append(out, Event{
			Type: EventProject, ID: p.ID, Title: p.Title,
			Category: p.Category, Color: p.Category.Color(),
			Date: *p.DueDate,
		})
	}
	return out
}

// EventsOn returns the events falling on day's calendar date in day's location.
func EventsOn(events []Event, day time.Time) []Event {
	out := []Event{}
	for _, e := range events {
		if sameDay(e.Date, day) {
			out = append(out, e)
		}
	}
	return out
}

// HasEvents reports whether any event falls on day.
func HasEvents(events []Event, day time.Time) bool {
	for _, e := range events {
		if sameDay(e.Date, day) {
			return true
		}
	}
	return false
}

// Indicators returns up to three distinct categories of events on day, in first-seen order.
func Indicators(events []Event, day time.Time) []Indicator {
	out := []Indicator{}
	seen := map[category.Category]bool{}
	for _, e := range events {
		if !sameDay(e.Date, day) || seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		out = append(out, Indicator{Category: e.Category, Color: e.Category.Color()})
		if len(out) == maxIndicators {
			break
		}
	}
	return out
}

// Month lists the days of the month that carry events, in date order.
func Month(events []Event, year int, month time.Month, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}
	out := []Day{}
	for d := time.Date(year, month, 1, 0, 0, 0, 0, loc); d.Month() == month; d = d.AddDate(0, 0, 1) {
		on := EventsOn(events, d)
		if len(on) == 0 {
			continue
		}
		out = append(out, Day{
			Date:       d.Format("2006-01-02"),
			Count:      len(on),
			Indicators: Indicators(on, d),
		})
	}
	return out
}

func sameDay(t, day time.Time) bool {
	y1, m1, d1 := t.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

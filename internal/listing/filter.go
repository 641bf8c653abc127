// Package listing holds the predicates used to narrow task and project lists.
// Everything here is pure; callers own the slices they pass in.
package listing

import (
	"errors"
	"strings"

	"github.com/deskhq/desk-backend/internal/category"
)

// Record is anything that can be filtered by category and searched by title.
type Record interface {
	RecordTitle() string
	RecordCategory() category.Category
}

// Completable records additionally take part in status filtering.
type Completable interface {
	IsCompleted() bool
}

type Status string

const (
	StatusAll       Status = "all"
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

var ErrInvalidStatus = errors.New("invalid status filter")

// ParseStatus maps "" to StatusAll.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "", StatusAll:
		return StatusAll, nil
	case StatusCompleted, StatusPending:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Criteria combines the category, search and status predicates with AND.
type Criteria struct {
	Category *category.Category `json:"category"`
	Search   string             `json:"search"`
	Status   Status             `json:"status"`
}

// MatchesCategory passes everything when filter is nil.
func MatchesCategory(r Record, filter *category.Category) bool {
	if filter == nil {
		return true
	}
	return r.RecordCategory() == *filter
}

// MatchesSearch is a case-insensitive substring test on the title. An empty term passes everything.
func MatchesSearch(r Record, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.RecordTitle()), strings.ToLower(term))
}

// MatchesStatus passes records that do not implement Completable.
func MatchesStatus(r Record, status Status) bool {
	c, ok := r.(Completable)
	if !ok {
		return true
	}
	switch status {
	case StatusCompleted:
		return c.IsCompleted()
	case StatusPending:
		return !c.IsCompleted()
	default:
		return true
	}
}

func (c Criteria) Match(r Record) bool {
	return MatchesSearch(r, c.Search) &&
		MatchesCategory(r, c.Category) &&
		MatchesStatus(r, c.Status)
}

// Apply returns the matching items in their original order. The input is not modified.
func Apply[T Record](items []T, c Criteria) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if c.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

package category

import (
	"errors"
	"strings"
)

// Category tags tasks and projects. The set is fixed.
type Category string

const (
	Personal Category = "personal"
	Business Category = "business"
	Finance  Category = "finance"
	Design   Category = "design"
	Urgent   Category = "urgent"
)

var ErrInvalidCategory = errors.New("invalid category")

var all = []Category{Personal, Business, Finance, Design, Urgent}

var colors = map[Category]string{
	Personal: "green",
	Business: "blue",
	Finance:  "yellow",
	Design:   "purple",
	Urgent:   "red",
}

// All returns the categories in display order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Parse accepts any casing and surrounding whitespace.
func Parse(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := colors[c]
	return ok
}

// Color is the badge colour used by the dashboard for this category.
func (c Category) Color() string {
	if col, ok := colors[c]; ok {
		return col
	}
	return "gray"
}

func (c Category) String() string { return string(c) }

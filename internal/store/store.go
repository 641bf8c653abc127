// Package store is the row-level client for the hosted relational backend.
// Every call is scoped to the owning user; rows are plain column maps and the
// feature repositories translate them into domain types.
package store

import (
	"context"
	"errors"
)

type Table string

const (
	TableTasks            Table = "tasks"
	TableProjects         Table = "projects"
	TableProjectTasks     Table = "project_tasks"
	TableStoreConnections Table = "store_connections"
	TableStoreSales       Table = "store_sales"
	TableStoreProducts    Table = "store_products"
)

var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrNoRows           = errors.New("no rows in result set")
	ErrUnknownTable     = errors.New("unknown table")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrImmutableColumn  = errors.New("column cannot be updated")
	ErrEmptyPatch       = errors.New("update patch is empty")
	ErrMismatchedInsert = errors.New("inserted rows must share the same columns")
)

// Row is a single table row keyed by column name. Absent optional values are nil.
type Row map[string]any

// Query narrows a Select, Update or Delete beyond the implicit user scope.
type Query struct {
	ID      string
	Eq      Row
	OrderBy string
	Desc    bool
	Limit   int
}

// Client is implemented by the Postgres adapter and the in-memory store.
//
// Select returns an empty, non-nil slice together with ErrAuthRequired when
// userID is empty; writes return ErrAuthRequired without touching the backend.
type Client interface {
	Select(ctx context.Context, table Table, userID string, q Query) ([]Row, error)
	SelectOne(ctx context.Context, table Table, userID string, q Query) (Row, error)
	Insert(ctx context.Context, table Table, userID string, rows ...Row) ([]Row, error)
	Update(ctx context.Context, table Table, userID string, q Query, patch Row) ([]Row, error)
	Delete(ctx context.Context, table Table, userID string, q Query) (int64, error)
}

// ByCreatedDesc is the ordering every list view uses.
func ByCreatedDesc() Query {
	return Query{OrderBy: ColCreatedAt, Desc: true}
}

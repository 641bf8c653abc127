package store

import (
	"fmt"
	"sort"
)

const (
	ColID        = "id"
	ColUserID    = "user_id"
	ColCreatedAt = "created_at"
)

type tableDef struct {
	columns  []string
	defaults Row
	// cascade lists child tables whose rows reference this table by the given column.
	cascade map[Table]string
}

var schema = map[Table]tableDef{
	TableTasks: {
		columns:  []string{"id", "user_id", "title", "completed", "category", "due_date", "description", "created_at"},
		defaults: Row{"completed": false, "due_date": nil, "description": nil},
	},
	TableProjects: {
		columns: []string{"id", "user_id", "title", "category", "description", "due_date", "progress", "total_tasks", "completed_tasks", "created_at"},
		defaults: Row{
			"description": nil, "due_date": nil,
			"progress": int64(0), "total_tasks": int64(0), "completed_tasks": int64(0),
		},
		cascade: map[Table]string{TableProjectTasks: "project_id"},
	},
	TableProjectTasks: {
		columns:  []string{"id", "project_id", "user_id", "title", "completed", "due_date", "created_at"},
		defaults: Row{"completed": false, "due_date": nil},
	},
	TableStoreConnections: {
		columns:  []string{"id", "user_id", "shop_url", "access_token", "last_sync", "created_at"},
		defaults: Row{"last_sync": nil},
	},
	TableStoreSales: {
		columns: []string{"id", "user_id", "month", "sales", "created_at"},
	},
	TableStoreProducts: {
		columns: []string{"id", "user_id", "name", "value", "created_at"},
	},
}

// Columns returns the whitelisted columns of a table in schema order.
func Columns(t Table) ([]string, error) {
	def, ok := schema[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, t)
	}
	out := make([]string, len(def.columns))
	copy(out, def.columns)
	return out, nil
}

// Defaults returns the column defaults the database would apply on insert.
func Defaults(t Table) Row {
	out := Row{}
	for k, v := range schema[t].defaults {
		out[k] = v
	}
	return out
}

// Cascades returns child table -> foreign key column for tables deleted with t.
func Cascades(t Table) map[Table]string {
	return schema[t].cascade
}

// HasColumn reports whether col is whitelisted for t.
func HasColumn(t Table, col string) bool {
	for _, c := range schema[t].columns {
		if c == col {
			return true
		}
	}
	return false
}

// CheckColumns validates every key in r against the table whitelist and
// returns the keys sorted so callers build deterministic SQL.
func CheckColumns(t Table, r Row) ([]string, error) {
	if _, ok := schema[t]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, t)
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		if !HasColumn(t, k) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// CheckPatch validates an update patch; ids, owners and creation times are immutable.
func CheckPatch(t Table, patch Row) ([]string, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyPatch
	}
	for _, k := range []string{ColID, ColUserID, ColCreatedAt} {
		if _, ok := patch[k]; ok {
			return nil, fmt.Errorf("%w: %s", ErrImmutableColumn, k)
		}
	}
	return CheckColumns(t, patch)
}

// CheckQuery validates the Eq and OrderBy columns of q.
func CheckQuery(t Table, q Query) ([]string, error) {
	keys, err := CheckColumns(t, q.Eq)
	if err != nil {
		return nil, err
	}
	if q.OrderBy != "" && !HasColumn(t, q.OrderBy) {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t, q.OrderBy)
	}
	return keys, nil
}

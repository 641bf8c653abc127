// Package postgres implements store.Client on top of database/sql. In
// production the *sql.DB wraps the shared pgx pool via pgx's stdlib adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/deskhq/desk-backend/internal/store"
)

// Client provides user-scoped row operations against Postgres.
type Client struct {
	db *sql.DB
}

// New creates a new Postgres row client.
func New(db *sql.DB) *Client {
	return &Client{db: db}
}

var _ store.Client = (*Client)(nil)

func (c *Client) Select(ctx context.Context, t store.Table, userID string, q store.Query) ([]store.Row, error) {
	if userID == "" {
		return []store.Row{}, store.ErrAuthRequired
	}
	cols, err := store.Columns(t)
	if err != nil {
		return nil, err
	}
	where, args, err := buildWhere(t, userID, q, 1)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", strings.Join(cols, ", "), t, where)
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	rows, err := c.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func (c *Client) SelectOne(ctx context.Context, t store.Table, userID string, q store.Query) (store.Row, error) {
	q.Limit = 1
	rows, err := c.Select(ctx, t, userID, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNoRows
	}
	return rows[0], nil
}

// Insert writes all rows in one transaction and returns the canonical rows.
func (c *Client) Insert(ctx context.Context, t store.Table, userID string, rows ...store.Row) ([]store.Row, error) {
	if userID == "" {
		return nil, store.ErrAuthRequired
	}
	if len(rows) == 0 {
		return []store.Row{}, nil
	}
	cols, err := store.Columns(t)
	if err != nil {
		return nil, err
	}

	first := rows[0].Clone()
	first[store.ColUserID] = userID
	keys, err := store.CheckColumns(t, first)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(keys))
	for i := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t, strings.Join(keys, ", "), strings.Join(placeholders, ", "), strings.Join(cols, ", "),
	)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert %s: %w", t, err)
	}
	defer func() { _ = tx.Rollback() }()

	out := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		r = r.Clone()
		r[store.ColUserID] = userID
		if len(r) != len(keys) {
			return nil, store.ErrMismatchedInsert
		}
		args := make([]any, len(keys))
		for i, k := range keys {
			v, ok := r[k]
			if !ok {
				return nil, store.ErrMismatchedInsert
			}
			args[i] = v
		}

		res, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", t, err)
		}
		scanned, err := scanRows(res)
		res.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, scanned...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert %s: %w", t, err)
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, t store.Table, userID string, q store.Query, patch store.Row) ([]store.Row, error) {
	if userID == "" {
		return nil, store.ErrAuthRequired
	}
	cols, err := store.Columns(t)
	if err != nil {
		return nil, err
	}
	keys, err := store.CheckPatch(t, patch)
	if err != nil {
		return nil, err
	}

	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+2)
	for i, k := range keys {
		sets[i] = fmt.Sprintf("%s = $%d", k, i+1)
		args = append(args, patch[k])
	}
	where, whereArgs, err := buildWhere(t, userID, q, len(keys)+1)
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s RETURNING %s",
		t, strings.Join(sets, ", "), where, strings.Join(cols, ", "),
	)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", t, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Delete relies on ON DELETE CASCADE for child tables.
func (c *Client) Delete(ctx context.Context, t store.Table, userID string, q store.Query) (int64, error) {
	if userID == "" {
		return 0, store.ErrAuthRequired
	}
	if _, err := store.Columns(t); err != nil {
		return 0, err
	}
	where, args, err := buildWhere(t, userID, q, 1)
	if err != nil {
		return 0, err
	}

	res, err := c.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", t, where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t, err)
	}
	return res.RowsAffected()
}

// buildWhere always starts with the user scope. Placeholders are numbered from start.
func buildWhere(t store.Table, userID string, q store.Query, start int) (string, []any, error) {
	keys, err := store.CheckQuery(t, q)
	if err != nil {
		return "", nil, err
	}

	n := start
	conds := []string{fmt.Sprintf("%s = $%d", store.ColUserID, n)}
	args := []any{userID}
	n++

	if q.ID != "" {
		conds = append(conds, fmt.Sprintf("%s = $%d", store.ColID, n))
		args = append(args, q.ID)
		n++
	}
	for _, k := range keys {
		if k == store.ColUserID {
			continue
		}
		v := q.Eq[k]
		if v == nil {
			conds = append(conds, fmt.Sprintf("%s IS NULL", k))
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = $%d", k, n))
		args = append(args, v)
		n++
	}
	return strings.Join(conds, " AND "), args, nil
}

func scanRows(rows *sql.Rows) ([]store.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]store.Row, 0, 16)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		r := make(store.Row, len(cols))
		for i, col := range cols {
			switch v := values[i].(type) {
			case []byte:
				r[col] = string(v)
			case time.Time:
				r[col] = v.UTC()
			default:
				r[col] = v
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Package memstore is an in-process store.Client used for local development
// and tests. It applies the same user scoping, column whitelist, defaults and
// cascades as the Postgres schema.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskhq/desk-backend/internal/store"
)

type record struct {
	row store.Row
	seq int64
}

// Store keeps rows per table. The zero value is not usable; call New.
type Store struct {
	mu     sync.RWMutex
	tables map[store.Table][]*record
	seq    int64
	now    func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the clock used for created_at defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[store.Table][]*record),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ store.Client = (*Store)(nil)

func (s *Store) Select(ctx context.Context, t store.Table, userID string, q store.Query) ([]store.Row, error) {
	if userID == "" {
		return []store.Row{}, store.ErrAuthRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := store.Columns(t); err != nil {
		return nil, err
	}
	if _, err := store.CheckQuery(t, q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	found := s.match(t, userID, q)
	matched := make([]record, len(found))
	for i, r := range found {
		matched[i] = record{row: r.row.Clone(), seq: r.seq}
	}
	s.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c := compare(matched[i].row[q.OrderBy], matched[j].row[q.OrderBy])
			if c == 0 {
				c = compareInt(matched[i].seq, matched[j].seq)
			}
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]store.Row, len(matched))
	for i, r := range matched {
		out[i] = r.row
	}
	return out, nil
}

func (s *Store) SelectOne(ctx context.Context, t store.Table, userID string, q store.Query) (store.Row, error) {
	q.Limit = 1
	rows, err := s.Select(ctx, t, userID, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNoRows
	}
	return rows[0], nil
}

func (s *Store) Insert(ctx context.Context, t store.Table, userID string, rows ...store.Row) ([]store.Row, error) {
	if userID == "" {
		return nil, store.ErrAuthRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prepared := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		full := store.Defaults(t)
		for k, v := range r {
			full[k] = v
		}
		full[store.ColUserID] = userID
		if full.String(store.ColID) == "" {
			full[store.ColID] = uuid.NewString()
		}
		if _, ok := full[store.ColCreatedAt]; !ok {
			full[store.ColCreatedAt] = s.now().UTC()
		}
		if _, err := store.CheckColumns(t, full); err != nil {
			return nil, err
		}
		prepared = append(prepared, full)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range prepared {
		for _, existing := range s.tables[t] {
			if existing.row.String(store.ColID) == r.String(store.ColID) {
				return nil, fmt.Errorf("insert %s: duplicate id %q", t, r.String(store.ColID))
			}
		}
	}

	out := make([]store.Row, len(prepared))
	for i, r := range prepared {
		s.seq++
		s.tables[t] = append(s.tables[t], &record{row: r, seq: s.seq})
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, t store.Table, userID string, q store.Query, patch store.Row) ([]store.Row, error) {
	if userID == "" {
		return nil, store.ErrAuthRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := store.CheckPatch(t, patch); err != nil {
		return nil, err
	}
	if _, err := store.CheckQuery(t, q); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.match(t, userID, q)
	out := make([]store.Row, 0, len(matched))
	for _, r := range matched {
		for k, v := range patch {
			r.row[k] = v
		}
		out = append(out, r.row.Clone())
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, t store.Table, userID string, q store.Query) (int64, error) {
	if userID == "" {
		return 0, store.ErrAuthRequired
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, err := store.CheckQuery(t, q); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteLocked(t, userID, q), nil
}

func (s *Store) deleteLocked(t store.Table, userID string, q store.Query) int64 {
	doomed := s.match(t, userID, q)
	if len(doomed) == 0 {
		return 0
	}
	gone := make(map[*record]bool, len(doomed))
	for _, r := range doomed {
		gone[r] = true
	}

	kept := s.tables[t][:0]
	for _, r := range s.tables[t] {
		if !gone[r] {
			kept = append(kept, r)
		}
	}
	s.tables[t] = kept

	for child, fk := range store.Cascades(t) {
		for _, r := range doomed {
			s.deleteLocked(child, userID, store.Query{Eq: store.Row{fk: r.row.String(store.ColID)}})
		}
	}
	return int64(len(doomed))
}

// match must be called with s.mu held.
func (s *Store) match(t store.Table, userID string, q store.Query) []*record {
	var out []*record
	for _, r := range s.tables[t] {
		if r.row.String(store.ColUserID) != userID {
			continue
		}
		if q.ID != "" && r.row.String(store.ColID) != q.ID {
			continue
		}
		ok := true
		for k, v := range q.Eq {
			if !equal(r.row[k], v) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa == fb
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

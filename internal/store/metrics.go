package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Metrics tracks row store calls.
type Metrics struct {
	calls   int64
	errors  int64
	latency int64 // total latency in nanoseconds
}

// MetricsSnapshot is the JSON view reported by the health endpoint.
type MetricsSnapshot struct {
	Calls        int64   `json:"calls"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	ErrorRate    float64 `json:"error_rate"`
}

func (m *Metrics) record(d time.Duration, err error) {
	atomic.AddInt64(&m.calls, 1)
	atomic.AddInt64(&m.latency, d.Nanoseconds())
	if err != nil && !errors.Is(err, ErrNoRows) {
		atomic.AddInt64(&m.errors, 1)
	}
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	calls := atomic.LoadInt64(&m.calls)
	errs := atomic.LoadInt64(&m.errors)
	lat := atomic.LoadInt64(&m.latency)

	s := MetricsSnapshot{Calls: calls, Errors: errs}
	if calls > 0 {
		s.AvgLatencyMs = float64(lat) / float64(calls) / 1e6
		s.ErrorRate = float64(errs) / float64(calls) * 100
	}
	return s
}

// Reset zeroes all counters (useful for testing).
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.calls, 0)
	atomic.StoreInt64(&m.errors, 0)
	atomic.StoreInt64(&m.latency, 0)
}

type instrumented struct {
	next Client
	m    *Metrics
}

// WithMetrics wraps c so every call is counted in m.
func WithMetrics(c Client, m *Metrics) Client {
	return &instrumented{next: c, m: m}
}

func (i *instrumented) Select(ctx context.Context, t Table, userID string, q Query) ([]Row, error) {
	start := time.Now()
	rows, err := i.next.Select(ctx, t, userID, q)
	i.m.record(time.Since(start), err)
	return rows, err
}

func (i *instrumented) SelectOne(ctx context.Context, t Table, userID string, q Query) (Row, error) {
	start := time.Now()
	row, err := i.next.SelectOne(ctx, t, userID, q)
	i.m.record(time.Since(start), err)
	return row, err
}

func (i *instrumented) Insert(ctx context.Context, t Table, userID string, rows ...Row) ([]Row, error) {
	start := time.Now()
	out, err := i.next.Insert(ctx, t, userID, rows...)
	i.m.record(time.Since(start), err)
	return out, err
}

func (i *instrumented) Update(ctx context.Context, t Table, userID string, q Query, patch Row) ([]Row, error) {
	start := time.Now()
	out, err := i.next.Update(ctx, t, userID, q, patch)
	i.m.record(time.Since(start), err)
	return out, err
}

func (i *instrumented) Delete(ctx context.Context, t Table, userID string, q Query) (int64, error) {
	start := time.Now()
	n, err := i.next.Delete(ctx, t, userID, q)
	i.m.record(time.Since(start), err)
	return n, err
}

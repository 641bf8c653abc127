package store

import (
	"fmt"
	"strconv"
	"time"
)

// String returns the column as a string, or "" when absent.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// OptString returns nil for NULL or empty values.
func (r Row) OptString(col string) *string {
	s := r.String(col)
	if s == "" {
		return nil
	}
	return &s
}

func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case int64:
		return v != 0
	default:
		return false
	}
}

func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case []byte:
		n, _ := strconv.Atoi(string(v))
		return n
	default:
		return 0
	}
}

func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	default:
		return 0
	}
}

// Time accepts time.Time values and RFC3339 strings; anything else yields the zero time.
func (r Row) Time(col string) time.Time {
	t := r.OptTime(col)
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (r Row) OptTime(col string) *time.Time {
	switch v := r[col].(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case *time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil
		}
		return &t
	default:
		return nil
	}
}

// Nullable maps nil pointers to SQL NULL.
func Nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

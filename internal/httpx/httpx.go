// Package httpx holds the request and response helpers shared by the page handlers.
package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/listing"
	"github.com/deskhq/desk-backend/internal/liststate"
	"github.com/deskhq/desk-backend/internal/logging"
	projectdomain "github.com/deskhq/desk-backend/internal/projects/domain"
	"github.com/deskhq/desk-backend/internal/store"
)

// Nullable is a JSON field that tells an absent key apart from an explicit null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Apply overwrites *dst when the field was present in the request.
func (n Nullable[T]) Apply(dst **T) {
	if n.Set {
		*dst = n.Value
	}
}

// Status maps a domain error to its HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, store.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, liststate.ErrNotFound),
		errors.Is(err, projectdomain.ErrProjectNotFound),
		errors.Is(err, store.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, category.ErrInvalidCategory),
		errors.Is(err, listing.ErrInvalidStatus),
		errors.Is(err, projectdomain.ErrInvalidProgress),
		errors.Is(err, projectdomain.ErrInvalidCounts):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the standard failure body. Server errors are logged and their
// detail is not echoed to the client.
func Error(c *gin.Context, operation string, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error(operation, err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{"ok": false, "error": msg})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}

// ParseCategoryFilter reads a category filter value; "" and "all" clear the filter.
func ParseCategoryFilter(v string) (*category.Category, error) {
	if v == "" || v == "all" {
		return nil, nil
	}
	c, err := category.Parse(v)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseLocation resolves an IANA zone name, defaulting to UTC.
func ParseLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

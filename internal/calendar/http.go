package calendar

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/httpx"
	"github.com/deskhq/desk-backend/internal/workspace"
)

type Handler struct {
	sessions *workspace.Registry
	now      func() time.Time
}

func NewHandler(sessions *workspace.Registry) *Handler {
	return &Handler{sessions: sessions, now: time.Now}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.Day)
	rg.GET("/month", h.Month)
}

// Day returns the events of ?date=YYYY-MM-DD (default today) in ?tz (default UTC).
func (h *Handler) Day(c *gin.Context) {
	loc, err := httpx.ParseLocation(c.Query("tz"))
	if err != nil {
		httpx.BadRequest(c, "invalid tz")
		return
	}
	day := h.now().In(loc)
	if v := c.Query("date"); v != "" {
		if day, err = time.ParseInLocation("2006-01-02", v, loc); err != nil {
			httpx.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
	}

	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	events := Events(s.Tasks.Items(), s.Projects.Items())
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"date":       day.Format("2006-01-02"),
		"events":     EventsOn(events, day),
		"indicators": Indicators(events, day),
	})
}

// Month returns the per-day summaries of ?month=YYYY-MM (default current month).
func (h *Handler) Month(c *gin.Context) {
	loc, err := httpx.ParseLocation(c.Query("tz"))
	if err != nil {
		httpx.BadRequest(c, "invalid tz")
		return
	}
	ref := h.now().In(loc)
	if v := c.Query("month"); v != "" {
		if ref, err = time.ParseInLocation("2006-01", v, loc); err != nil {
			httpx.BadRequest(c, "month must be YYYY-MM")
			return
		}
	}

	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	events := Events(s.Tasks.Items(), s.Projects.Items())
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"month": ref.Format("2006-01"),
		"days":  Month(events, ref.Year(), ref.Month(), loc),
	})
}

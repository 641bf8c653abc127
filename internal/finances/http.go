package finances

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/auth"
	"github.com/deskhq/desk-backend/internal/httpx"
	"github.com/deskhq/desk-backend/internal/workspace"
)

type Handler struct {
	svc      *Service
	sessions *workspace.Registry
}

func NewHandler(svc *Service, sessions *workspace.Registry) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// RegisterFinances mounts the finances overview.
func (h *Handler) RegisterFinances(rg *gin.RouterGroup) {
	rg.GET("", h.GetOverview)
}

// RegisterDashboard mounts the home dashboard.
func (h *Handler) RegisterDashboard(rg *gin.RouterGroup) {
	rg.GET("", h.GetDashboard)
}

func (h *Handler) GetOverview(c *gin.Context) {
	ov, err := h.svc.Overview(c.Request.Context(), auth.UserID(c))
	if err != nil {
		httpx.Error(c, "finances.overview", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "overview": ov})
}

func (h *Handler) GetDashboard(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	tasks := s.Tasks.Items()
	projects := s.Projects.Items()

	metrics, err := h.svc.Metrics(c.Request.Context(), s.UserID(), tasks, projects)
	if err != nil {
		httpx.Error(c, "finances.dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "dashboard": BuildDashboard(metrics, tasks, projects)})
}

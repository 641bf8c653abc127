package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/httpx"
	"github.com/deskhq/desk-backend/internal/liststate"
	"github.com/deskhq/desk-backend/internal/projects/domain"
	"github.com/deskhq/desk-backend/internal/workspace"
)

func (h *Handler) List(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	req := viewReq{}
	if v, ok := c.GetQuery("category"); ok {
		req.Category = &v
	}
	if v, ok := c.GetQuery("q"); ok {
		req.Search = &v
	}
	if err := applyView(s.Projects, req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": s.Projects.View()})
}

func (h *Handler) SetView(c *gin.Context) {
	var req viewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid body")
		return
	}
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	if err := applyView(s.Projects, req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": s.Projects.View()})
}

func applyView(l *liststate.List[domain.Project], req viewReq) error {
	if req.Category != nil {
		cat, err := httpx.ParseCategoryFilter(*req.Category)
		if err != nil {
			return err
		}
		l.SetFilter(cat)
	}
	if req.Search != nil {
		l.SetSearchTerm(*req.Search)
	}
	return nil
}

func (h *Handler) Create(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid body")
		return
	}
	cat := category.Business
	if strings.TrimSpace(req.Category) != "" {
		var err error
		if cat, err = category.Parse(req.Category); err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
	}
	p := domain.Project{
		Title:       strings.TrimSpace(req.Title),
		Category:    cat,
		DueDate:     req.DueDate,
		Description: req.Description,
		Progress:    req.Progress,
	}
	if err := p.Validate(); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	created, added, err := s.Projects.Add(c.Request.Context(), p)
	if err != nil {
		httpx.Error(c, "projects.create", err)
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"ok": true, "added": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "added": true, "project": created})
}

// Update edits project fields. Progress is only ever changed here.
func (h *Handler) Update(c *gin.Context) {
	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid body")
		return
	}
	var cat *category.Category
	if req.Category != nil {
		parsed, err := category.Parse(*req.Category)
		if err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
		cat = &parsed
	}
	if req.Progress != nil && (*req.Progress < 0 || *req.Progress > 100) {
		httpx.BadRequest(c, domain.ErrInvalidProgress.Error())
		return
	}

	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	p, err := s.Projects.Update(c.Request.Context(), c.Param("id"), func(p domain.Project) domain.Project {
		if req.Title != nil {
			p.Title = strings.TrimSpace(*req.Title)
		}
		if cat != nil {
			p.Category = *cat
		}
		if req.Progress != nil {
			p.Progress = *req.Progress
		}
		req.DueDate.Apply(&p.DueDate)
		req.Description.Apply(&p.Description)
		return p
	})
	if err != nil {
		httpx.Error(c, "projects.update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) Delete(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	if err := s.RemoveProject(c.Request.Context(), c.Param("id")); err != nil {
		httpx.Error(c, "projects.delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Select(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	id := c.Param("id")
	p, found := s.Projects.Get(id)
	if !found {
		httpx.Error(c, "projects.select", liststate.ErrNotFound)
		return
	}
	s.Projects.Select(id)
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) Selected(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	p, found := s.Projects.Selected()
	if !found {
		c.JSON(http.StatusOK, gin.H{"ok": true, "project": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) Refresh(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	if err := s.Projects.Refetch(c.Request.Context()); err != nil {
		httpx.Error(c, "projects.refresh", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": s.Projects.View()})
}

package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/category"
	"github.com/deskhq/desk-backend/internal/httpx"
	"github.com/deskhq/desk-backend/internal/listing"
	"github.com/deskhq/desk-backend/internal/liststate"
	"github.com/deskhq/desk-backend/internal/tasks/domain"
	"github.com/deskhq/desk-backend/internal/workspace"
)

type taskList = liststate.List[domain.Task]

// List returns the filtered view. category, q and status query parameters,
// when present, replace the stored criteria first.
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
	if v, ok := c.GetQuery("status"); ok {
		req.Status = &v
	}
	if err := applyView(s.Tasks, req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": s.Tasks.View()})
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
	if err := applyView(s.Tasks, req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": s.Tasks.View()})
}

// applyView validates every field before touching the list.
func applyView(l *taskList, req viewReq) error {
	var (
		cat    *category.Category
		status listing.Status
		err    error
	)
	if req.Category != nil {
		if cat, err = httpx.ParseCategoryFilter(*req.Category); err != nil {
			return err
		}
	}
	if req.Status != nil {
		if status, err = listing.ParseStatus(*req.Status); err != nil {
			return err
		}
	}

	if req.Category != nil {
		l.SetFilter(cat)
	}
	if req.Search != nil {
		l.SetSearchTerm(*req.Search)
	}
	if req.Status != nil {
		l.SetStatus(status)
	}
	return nil
}

func (h *Handler) Create(c *gin.Context) {
	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid body")
		return
	}
	cat := category.Personal
	if strings.TrimSpace(req.Category) != "" {
		var err error
		if cat, err = category.Parse(req.Category); err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
	}

	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	task, added, err := s.Tasks.Add(c.Request.Context(), domain.Task{
		Title:       strings.TrimSpace(req.Title),
		Completed:   req.Completed,
		Category:    cat,
		DueDate:     req.DueDate,
		Description: req.Description,
	})
	if err != nil {
		httpx.Error(c, "tasks.create", err)
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"ok": true, "added": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "added": true, "task": task})
}

func (h *Handler) Update(c *gin.Context) {
	var req updateTaskReq
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

	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	task, err := s.Tasks.Update(c.Request.Context(), c.Param("id"), func(t domain.Task) domain.Task {
		if req.Title != nil {
			t.Title = strings.TrimSpace(*req.Title)
		}
		if cat != nil {
			t.Category = *cat
		}
		if req.Completed != nil {
			t.Completed = *req.Completed
		}
		req.DueDate.Apply(&t.DueDate)
		req.Description.Apply(&t.Description)
		return t
	})
	if err != nil {
		httpx.Error(c, "tasks.update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": task})
}

// Complete sets the completion flag; without a body it flips the current value.
func (h *Handler) Complete(c *gin.Context) {
	var req completeReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid body")
			return
		}
	}
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	task, err := s.Tasks.Update(c.Request.Context(), c.Param("id"), func(t domain.Task) domain.Task {
		if req.Completed != nil {
			t.Completed = *req.Completed
		} else {
			t.Completed = !t.Completed
		}
		return t
	})
	if err != nil {
		httpx.Error(c, "tasks.complete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": task})
}

func (h *Handler) Select(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	id := c.Param("id")
	task, found := s.Tasks.Get(id)
	if !found {
		httpx.Error(c, "tasks.select", liststate.ErrNotFound)
		return
	}
	s.Tasks.Select(id)
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": task})
}

func (h *Handler) Selected(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	task, found := s.Tasks.Selected()
	if !found {
		c.JSON(http.StatusOK, gin.H{"ok": true, "task": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": task})
}

func (h *Handler) Refresh(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	if err := s.Tasks.Refetch(c.Request.Context()); err != nil {
		httpx.Error(c, "tasks.refresh", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": s.Tasks.View()})
}

package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/httpx"
	"github.com/deskhq/desk-backend/internal/projects/domain"
	"github.com/deskhq/desk-backend/internal/workspace"
)

func (h *Handler) ListSubtasks(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	list, err := s.Subtasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, "projects.subtasks.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": list.View()})
}

func (h *Handler) CreateSubtask(c *gin.Context) {
	var req createSubtaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid body")
		return
	}
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	projectID := c.Param("id")
	created, added, err := s.AddSubtask(c.Request.Context(), projectID, domain.ProjectTask{
		Title:     strings.TrimSpace(req.Title),
		DueDate:   req.DueDate,
		Completed: req.Completed,
	})
	if err != nil {
		httpx.Error(c, "projects.subtasks.create", err)
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"ok": true, "added": false})
		return
	}
	p, _ := s.Projects.Get(projectID)
	c.JSON(http.StatusCreated, gin.H{"ok": true, "added": true, "task": created, "project": p})
}

// CompleteSubtask sets a subtask's completion; without a body it flips it.
func (h *Handler) CompleteSubtask(c *gin.Context) {
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
	projectID, taskID := c.Param("id"), c.Param("taskId")

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	} else {
		list, err := s.Subtasks(c.Request.Context(), projectID)
		if err != nil {
			httpx.Error(c, "projects.subtasks.complete", err)
			return
		}
		if cur, found := list.Get(taskID); found {
			completed = !cur.Completed
		}
	}

	t, err := s.ToggleSubtask(c.Request.Context(), projectID, taskID, completed)
	if err != nil {
		httpx.Error(c, "projects.subtasks.complete", err)
		return
	}
	p, _ := s.Projects.Get(projectID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": t, "project": p})
}

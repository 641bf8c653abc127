package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PUT("/view", h.SetView)
	rg.POST("", h.Create)
	rg.POST("/refresh", h.Refresh)
	rg.GET("/selected", h.Selected)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/select", h.Select)

	rg.GET("/:id/tasks", h.ListSubtasks)
	rg.POST("/:id/tasks", h.CreateSubtask)
	rg.PATCH("/:id/tasks/:taskId/complete", h.CompleteSubtask)
}

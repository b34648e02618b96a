package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/services"
)

type cancelTaskController struct{ svc services.OrchestratorService }

func NewCancelTaskController(svc services.OrchestratorService) *cancelTaskController {
	return &cancelTaskController{svc}
}

// Handle reports cancelled=false rather than an error status when the task is
// not running: callers race task completion and must be able to tell "too
// late" apart from "bad request".
func (h *cancelTaskController) Handle(c *gin.Context) {
	taskID := c.Param("id")
	if _, err := h.svc.GetStatus(c.Request.Context(), taskID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	cancelled := h.svc.Cancel(c.Request.Context(), taskID)
	c.JSON(http.StatusOK, gin.H{"taskId": taskID, "cancelled": cancelled})
}

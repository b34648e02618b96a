package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/services"
	"github.com/promoforge/promoq/pkg/domain"
)

type submitAutomationController struct{ svc services.OrchestratorService }

func NewSubmitAutomationController(svc services.OrchestratorService) *submitAutomationController {
	return &submitAutomationController{svc}
}

type submitReq struct {
	Type   domain.TaskType         `json:"type"`
	Config domain.AutomationConfig `json:"config" binding:"required"`
}

func (h *submitAutomationController) Handle(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	if req.Type != "" && !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown task type"})
		return
	}

	task, estimateMinutes, err := h.svc.Submit(c.Request.Context(), req.Type, req.Config)
	if err != nil {
		if errors.Is(err, services.ErrCapacity) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "task capacity reached, retry later"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"task":                       task,
		"estimatedCompletionMinutes": estimateMinutes,
	})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/services"
)

type listTasksController struct{ svc services.OrchestratorService }

func NewListTasksController(svc services.OrchestratorService) *listTasksController {
	return &listTasksController{svc}
}

func (h *listTasksController) Handle(c *gin.Context) {
	tasks := h.svc.ListActive(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/repository"
	"github.com/promoforge/promoq/internal/services"
)

type getTaskController struct {
	svc     services.OrchestratorService
	archive repository.ArchiveRepository
}

// NewGetTaskController serves task snapshots from the live registry, falling
// back to the archive for tasks already swept out of memory.
func NewGetTaskController(svc services.OrchestratorService, archive repository.ArchiveRepository) *getTaskController {
	return &getTaskController{svc: svc, archive: archive}
}

func (h *getTaskController) Handle(c *gin.Context) {
	taskID := c.Param("id")
	task, err := h.svc.GetStatus(c.Request.Context(), taskID)
	if err == nil {
		c.JSON(http.StatusOK, task)
		return
	}
	if h.archive != nil {
		if archived, aerr := h.archive.Get(c.Request.Context(), taskID); aerr == nil {
			c.JSON(http.StatusOK, archived)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

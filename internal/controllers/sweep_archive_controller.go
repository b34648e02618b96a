package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/services"
)

type sweepArchiveController struct{ svc services.ArchiveSweepService }

// NewSweepArchiveController triggers one archive sweep on demand, ahead of the
// background ticker. Admin only.
func NewSweepArchiveController(svc services.ArchiveSweepService) *sweepArchiveController {
	return &sweepArchiveController{svc}
}

func (h *sweepArchiveController) Handle(c *gin.Context) {
	archived := h.svc.SweepOnce(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"archived": archived})
}

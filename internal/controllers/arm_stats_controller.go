package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/services"
)

type armStatsController struct{ svc services.AllocationService }

func NewArmStatsController(svc services.AllocationService) *armStatsController {
	return &armStatsController{svc}
}

func (h *armStatsController) Handle(c *gin.Context) {
	arms := h.svc.Stats()
	c.JSON(http.StatusOK, gin.H{"arms": arms, "count": len(arms)})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/services"
)

type reallocationCheckController struct{ svc services.AllocationService }

func NewReallocationCheckController(svc services.AllocationService) *reallocationCheckController {
	return &reallocationCheckController{svc}
}

type reallocationReq struct {
	CurrentSplit map[string]float64 `json:"currentSplit" binding:"required"`
}

func (h *reallocationCheckController) Handle(c *gin.Context) {
	var req reallocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reallocate": h.svc.ShouldReallocate(req.CurrentSplit)})
}

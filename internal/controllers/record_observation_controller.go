package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/services"
	"github.com/promoforge/promoq/pkg/domain"
)

type recordObservationController struct{ svc services.AllocationService }

// NewRecordObservationController lets external analytics feed realized rewards
// back into the allocator, alongside the pipeline's own heuristic estimates.
func NewRecordObservationController(svc services.AllocationService) *recordObservationController {
	return &recordObservationController{svc}
}

type observationReq struct {
	Platform   string  `json:"platform" binding:"required"`
	Hour       *int    `json:"hour,omitempty"`
	Reward     float64 `json:"reward"`
	ObservedAt string  `json:"observedAt,omitempty"` // RFC3339, defaults to now
}

func (h *recordObservationController) Handle(c *gin.Context) {
	var req observationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required"})
		return
	}
	if req.Hour != nil && (*req.Hour < 0 || *req.Hour > 23) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'hour' (0-23)"})
		return
	}

	at := time.Now()
	if req.ObservedAt != "" {
		t, err := time.Parse(time.RFC3339, req.ObservedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'observedAt' (use RFC3339)"})
			return
		}
		at = t
	}

	armKey := domain.PlatformArm(platform)
	if req.Hour != nil {
		armKey = domain.SlotArm(platform, *req.Hour)
	}
	h.svc.Record(armKey, req.Reward, at)
	c.JSON(http.StatusAccepted, gin.H{"armKey": armKey})
}

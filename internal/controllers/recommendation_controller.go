package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/services"
)

type recommendationController struct{ svc services.AllocationService }

func NewRecommendationController(svc services.AllocationService) *recommendationController {
	return &recommendationController{svc}
}

// Handle answers GET ?platforms=tiktok,youtube&budget=500 with the allocator's
// current advice. Budget is optional; without it only the split and schedule
// are meaningful.
func (h *recommendationController) Handle(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("platforms"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platforms is required"})
		return
	}
	var platforms []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			platforms = append(platforms, p)
		}
	}
	if len(platforms) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platforms is required"})
		return
	}

	budget := 0.0
	if v := strings.TrimSpace(c.Query("budget")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'budget' (must be >= 0)"})
			return
		}
		budget = f
	}

	c.JSON(http.StatusOK, h.svc.Recommend(platforms, budget))
}

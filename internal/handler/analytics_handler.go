package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/learnhub-api/internal/service"
	"github.com/learnhub/learnhub-api/pkg/response"
)

// AnalyticsHandler exposes the read-only admin rollups.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	metrics   *service.MetricsService
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, metrics *service.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, metrics: metrics}
}

// Platform godoc
// @Summary Platform-wide analytics rollup
// @Tags admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics [get]
func (h *AnalyticsHandler) Platform(c *gin.Context) {
	rollup, err := h.analytics.Platform(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rollup, nil)
}

// CourseStats returns the per-course rollup.
func (h *AnalyticsHandler) CourseStats(c *gin.Context) {
	stats, err := h.analytics.CourseStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// System returns process instrumentation.
func (h *AnalyticsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

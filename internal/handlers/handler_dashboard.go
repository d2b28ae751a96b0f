package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

// dashboardHandler handles the aggregated reporting endpoints.
type dashboardHandler struct {
	dashService portssvc.DashboardService
}

func newDashboardHandler(ds portssvc.DashboardService) *dashboardHandler {
	return &dashboardHandler{dashService: ds}
}

// registerDashboardRoutes registers routes related to the dashboard.
func registerDashboardRoutes(rg *gin.RouterGroup, dashService portssvc.DashboardService) {
	h := newDashboardHandler(dashService)

	dash := rg.Group("/dashboard")
	{
		dash.GET("/overview", h.getOverview)
		dash.GET("/performance", h.getPerformance)
		dash.GET("/analytics", h.getAnalytics)
	}
}

// getOverview godoc
// @Summary Dashboard overview
// @Description Pipeline counts, task buckets, recent communications and month-to-date activity, scoped to the caller's visibility.
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardOverview
// @Security BearerAuth
// @Router /dashboard/overview [get]
func (h *dashboardHandler) getOverview(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	overview, err := h.dashService.GetOverview(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to load dashboard overview")
		return
	}
	c.JSON(http.StatusOK, overview)
}

// getPerformance godoc
// @Summary Performance metrics
// @Tags dashboard
// @Produce json
// @Param period query string false "7d, 30d, 90d or 1y (default 30d)"
// @Success 200 {object} services.DashboardPerformance
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /dashboard/performance [get]
func (h *dashboardHandler) getPerformance(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	period := c.DefaultQuery("period", "30d")

	performance, err := h.dashService.GetPerformance(c.Request.Context(), actor, period)
	if err != nil {
		respondError(c, err, "Failed to load performance metrics")
		return
	}
	c.JSON(http.StatusOK, performance)
}

// getAnalytics godoc
// @Summary Analytics payload
// @Description Daily task activity, stage distribution, loan type breakdown and monthly trends.
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardAnalytics
// @Security BearerAuth
// @Router /dashboard/analytics [get]
func (h *dashboardHandler) getAnalytics(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	analytics, err := h.dashService.GetAnalytics(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to load analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/api/dashboard")
	{
		dashboard.GET("/stats", middleware.RequirePermission("dashboard.read"), h.GetStats)
		dashboard.GET("/user-stats", middleware.RequireRole(model.RoleVictim, model.RoleOfficial, model.RoleAdmin), h.GetUserStats)
	}
}

// GetStats returns aggregated dashboard statistics
// @Summary      Dashboard statistics
// @Description  Case totals per dashboard tab, status breakdown, fund statistics and grievance counts
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardStats}
// @Failure      403  {object}  response.Response
// @Router       /api/dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.GetStats(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetUserStats returns per-user activity statistics
// @Summary      User statistics
// @Description  Counts of the caller's own cases and grievances, scoped by role
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserStats}
// @Router       /api/dashboard/user-stats [get]
func (h *DashboardHandler) GetUserStats(c *gin.Context) {
	stats, err := h.dashboardService.GetUserStats(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

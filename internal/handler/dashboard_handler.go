package handler

import (
	"net/http"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/middleware"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/service"
	"github.com/SilasChalwe/zra-digital-fortress-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

// NewDashboardHandler sets up the routing dependencies for dashboard endpoints
func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", middleware.RequireRole(anyRole...), h.GetDashboard)
}

// GetDashboard handles GET /dashboard
// @Summary      Get taxpayer dashboard
// @Description  Aggregates filings, payments, outstanding liability and compliance into one overview
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Failure      401  {object}  response.Response
// @Router       /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}

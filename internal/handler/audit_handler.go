package handler

import (
	"net/http"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/middleware"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/service"
	"github.com/SilasChalwe/zra-digital-fortress-backend/pkg/pagination"
	"github.com/SilasChalwe/zra-digital-fortress-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

// NewAuditHandler sets up the routing dependencies for audit log endpoints
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", middleware.RequireRole(model.UserTypeAdmin), h.ListAuditLogs)
}

// ListAuditLogs handles GET /audit-logs (admin only)
// @Summary      List audit logs
// @Description  Retrieves paginated audit log entries, optionally filtered by action
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        action  query     string  false  "Filter by action"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	action := c.Query("action")
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), action, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

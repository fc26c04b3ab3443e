package handler

import (
	"net/http"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/middleware"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/service"
	"github.com/SilasChalwe/zra-digital-fortress-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ComplianceHandler struct {
	complianceService service.ComplianceService
}

// NewComplianceHandler sets up the routing dependencies for compliance endpoints
func NewComplianceHandler(complianceService service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{complianceService: complianceService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ComplianceHandler) RegisterRoutes(router *gin.RouterGroup) {
	compliance := router.Group("/compliance")
	{
		compliance.GET("/score", middleware.RequireRole(anyRole...), h.GetMyScore)
		compliance.GET("/score/:userId", middleware.RequireRole(model.UserTypeZraStaff, model.UserTypeAdmin), h.GetScoreByUser)
	}
}

// GetMyScore handles GET /compliance/score
// @Summary      Get own compliance score
// @Description  Returns the authenticated taxpayer's compliance score, level and badges
// @Tags         compliance
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ComplianceScoreResponse}
// @Failure      401  {object}  response.Response
// @Router       /compliance/score [get]
func (h *ComplianceHandler) GetMyScore(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	score, err := h.complianceService.GetScore(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, score))
}

// GetScoreByUser handles GET /compliance/score/:userId (staff only)
// @Summary      Get taxpayer compliance score
// @Description  Returns any taxpayer's compliance score for staff review
// @Tags         compliance
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "Taxpayer ID"
// @Success      200     {object}  response.Response{data=service.ComplianceScoreResponse}
// @Failure      400     {object}  response.Response
// @Router       /compliance/score/{userId} [get]
func (h *ComplianceHandler) GetScoreByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid taxpayer ID"))
		return
	}

	score, err := h.complianceService.GetScore(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, score))
}

package handler

import (
	"net/http"
	"time"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/middleware"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/service"
	"github.com/SilasChalwe/zra-digital-fortress-backend/pkg/pagination"
	"github.com/SilasChalwe/zra-digital-fortress-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FilingHandler struct {
	filingService service.FilingService
}

// NewFilingHandler sets up the routing dependencies for tax filing endpoints
func NewFilingHandler(filingService service.FilingService) *FilingHandler {
	return &FilingHandler{filingService: filingService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *FilingHandler) RegisterRoutes(router *gin.RouterGroup) {
	filings := router.Group("/filings")
	{
		filings.POST("/income", middleware.RequireRole(model.UserTypeIndividual, model.UserTypeBusiness), h.SubmitIncomeTax)
		filings.POST("/vat", middleware.RequireRole(model.UserTypeBusiness), h.SubmitVat)
		filings.GET("", middleware.RequireRole(anyRole...), h.ListFilings)
		filings.GET("/:id", middleware.RequireRole(anyRole...), h.GetFiling)
		filings.GET("/:id/penalty", middleware.RequireRole(anyRole...), h.GetPenalty)
		filings.PUT("/:id/review", middleware.RequireRole(model.UserTypeZraStaff, model.UserTypeAdmin), h.ReviewFiling)
	}
}

// SubmitIncomeTax handles POST /filings/income
// @Summary      Submit income tax return
// @Description  Calculates and submits (or drafts) an income tax return for one period
// @Tags         filings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.IncomeTaxFilingRequest  true  "Income Tax Filing Payload"
// @Success      201      {object}  response.Response{data=model.TaxFiling}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /filings/income [post]
func (h *FilingHandler) SubmitIncomeTax(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req service.IncomeTaxFilingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	filing, err := h.filingService.SubmitIncomeTax(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, filing))
}

// SubmitVat handles POST /filings/vat
// @Summary      Submit VAT return
// @Description  Calculates and submits (or drafts) a VAT return for one period
// @Tags         filings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.VatFilingRequest  true  "VAT Filing Payload"
// @Success      201      {object}  response.Response{data=model.TaxFiling}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /filings/vat [post]
func (h *FilingHandler) SubmitVat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req service.VatFilingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	filing, err := h.filingService.SubmitVat(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, filing))
}

// ListFilings handles GET /filings with pagination controls
// @Summary      List tax filings
// @Description  Retrieves the authenticated taxpayer's filings, newest first
// @Tags         filings
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /filings [get]
func (h *FilingHandler) ListFilings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	params := pagination.Parse(c)
	filings, total, err := h.filingService.GetUserFilings(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"filings": filings,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// GetFiling handles GET /filings/:id
// @Summary      Get tax filing
// @Description  Fetch a single filing by ID. Staff can view any filing.
// @Tags         filings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Filing ID"
// @Success      200  {object}  response.Response{data=model.TaxFiling}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /filings/{id} [get]
func (h *FilingHandler) GetFiling(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	filingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid filing ID"))
		return
	}

	filing, err := h.filingService.GetFilingByID(c.Request.Context(), userID, isStaff(c), filingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, filing))
}

// GetPenalty handles GET /filings/:id/penalty
// @Summary      Get penalty quote
// @Description  Computes the late-filing penalty and interest for a filing as of now
// @Tags         filings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Filing ID"
// @Success      200  {object}  response.Response{data=service.PenaltyResponse}
// @Failure      404  {object}  response.Response
// @Router       /filings/{id}/penalty [get]
func (h *FilingHandler) GetPenalty(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	filingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid filing ID"))
		return
	}

	penalty, err := h.filingService.GetPenalty(c.Request.Context(), userID, isStaff(c), filingID, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, penalty))
}

// ReviewFiling handles PUT /filings/:id/review (staff only)
// @Summary      Review tax filing
// @Description  Moves a filing through the review workflow (under review, approved, rejected, amended)
// @Tags         filings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Filing ID"
// @Param        payload  body      service.ReviewFilingRequest  true  "Review Decision"
// @Success      200      {object}  response.Response{data=model.TaxFiling}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /filings/{id}/review [put]
func (h *FilingHandler) ReviewFiling(c *gin.Context) {
	reviewerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	filingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid filing ID"))
		return
	}

	var req service.ReviewFilingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	filing, err := h.filingService.ReviewFiling(c.Request.Context(), reviewerID, filingID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, filing))
}

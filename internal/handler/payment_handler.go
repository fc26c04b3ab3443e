package handler

import (
	"net/http"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/middleware"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/service"
	"github.com/SilasChalwe/zra-digital-fortress-backend/pkg/pagination"
	"github.com/SilasChalwe/zra-digital-fortress-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler sets up the routing dependencies for payment endpoints
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.POST("", middleware.RequireRole(model.UserTypeIndividual, model.UserTypeBusiness), h.ProcessPayment)
		payments.GET("", middleware.RequireRole(anyRole...), h.ListPayments)
		payments.GET("/:id", middleware.RequireRole(anyRole...), h.GetPayment)
	}
}

// ProcessPayment handles POST /payments
// @Summary      Process tax payment
// @Description  Settles a tax liability through the payment gateway
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ProcessPaymentRequest  true  "Payment Payload"
// @Success      201      {object}  response.Response{data=model.Payment}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /payments [post]
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req service.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.paymentService.ProcessPayment(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if payment.Status == model.PaymentFailed {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, response.Success(status, payment))
}

// ListPayments handles GET /payments with pagination controls
// @Summary      List payments
// @Description  Retrieves the authenticated taxpayer's payments, newest first
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	params := pagination.Parse(c)
	payments, total, err := h.paymentService.GetUserPayments(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"payments": payments,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetPayment handles GET /payments/:id
// @Summary      Get payment
// @Description  Fetch a single payment by ID. Staff can view any payment.
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=model.Payment}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid payment ID"))
		return
	}

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), userID, isStaff(c), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

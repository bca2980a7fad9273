package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/service"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

// PaymentHandler 支付模块 HTTP 处理器
type PaymentHandler struct {
	paymentSvc service.PaymentService
}

// NewPaymentHandler 创建 PaymentHandler
func NewPaymentHandler(paymentSvc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// CreateCheckoutSession 创建支付会话
// POST /api/payment/create-checkout-session
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.paymentSvc.CreateCheckout(c.Request.Context(), studentID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// VerifySession 确认支付并完成报名，可重复调用
// POST /api/payment/verify-session
func (h *PaymentHandler) VerifySession(c *gin.Context) {
	var req dto.VerifySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.paymentSvc.ConfirmCheckout(c.Request.Context(), studentID, req.SessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
)

type PaymentHandler struct {
	svc PaymentService
	log *slog.Logger
}

func NewPaymentHandler(svc PaymentService, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

func (h *PaymentHandler) Key(c *gin.Context) {
	key, err := h.svc.PublicKey()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.GatewayKeyResponse{Key: key})
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateGatewayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	receipt := "rcpt_" + uuid.NewString()[:8] + "_" + middleware.GetUserID(c).String()[:8]
	order, err := h.svc.CreateOrder(c.Request.Context(), req.Amount, req.Currency, receipt)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.GatewayOrderResponse{Order: order})
}

// Verify always answers 200; the ok flag carries the verdict.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, dto.AckResponse{OK: false})
		return
	}
	ok := h.svc.Verify(req)
	if !ok {
		h.log.Warn("payment signature rejected", "user_id", middleware.GetUserID(c), "payment_id", req.RazorpayPaymentID)
	}
	c.JSON(http.StatusOK, dto.AckResponse{OK: ok})
}

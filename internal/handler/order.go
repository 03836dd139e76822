package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/model"
)

type OrderHandler struct {
	svc OrderService
	log *slog.Logger
}

func NewOrderHandler(svc OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.svc.PlaceOrder(c.Request.Context(), middleware.GetUserID(c), req, c.GetHeader(dto.IdempotencyHeader))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.PlaceOrderResponse{OK: true, OrderID: order.ID})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.svc.ListByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: items, Total: len(items)})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	order, err := h.svc.GetByID(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return dto.OrderResponse{
		ID:         order.ID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		Payment:    order.Payment,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	}
}

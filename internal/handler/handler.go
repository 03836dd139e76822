package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
}

type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (model.UserProfile, error)
	Update(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (model.UserProfile, error)
}

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error)
}

type CartService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
}

type PaymentService interface {
	PublicKey() (string, error)
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (dto.GatewayOrder, error)
	Verify(req dto.VerifyPaymentRequest) bool
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req dto.PlaceOrderRequest, idemKey string) (*model.Order, error)
	GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
}

// statusFor maps service errors to HTTP status codes. Anything unknown is a
// 500 and is logged.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrOrderInProgress),
		errors.Is(err, service.ErrPaymentAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrOrderAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptySelection),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPaymentNotVerified),
		errors.Is(err, service.ErrAmountMismatch):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrGatewayNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, dto.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
}

func paramID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

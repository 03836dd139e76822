package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

// IdempotencyHeader carries the client-generated key of a place-order request.
const IdempotencyHeader = "Idempotency-Key"

// Messages the backend returns on successful cart mutations.
const (
	MsgCartUpdated    = "Cart updated"
	MsgProductRemoved = "Product Removed"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

type AckResponse struct {
	OK bool `json:"ok"`
}

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Gender    string `json:"gender"`
	DOB       string `json:"dob"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

// --- Profile ---

type ProfileResponse struct {
	User model.UserProfile `json:"user"`
}

// UpdateProfileRequest is a partial update; nil fields and empty address
// sub-fields are left untouched. On the wire it is multipart/form-data keyed
// by the profile and address JSON names.
type UpdateProfileRequest struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Gender    *string
	DOB       *string
	Address   *model.Address
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CartListResponse struct {
	Data []model.CartItem `json:"data"`
}

// --- Payment ---

type GatewayKeyResponse struct {
	Key string `json:"key"`
}

type CreateGatewayOrderRequest struct {
	Amount   int64  `json:"amount" binding:"required,min=1"`
	Currency string `json:"currency"`
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type GatewayOrderResponse struct {
	Order GatewayOrder `json:"order"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// --- Order ---

type PlaceOrderRequest struct {
	CartIDs        []uuid.UUID          `json:"cartIds"`
	PaymentDetails model.PaymentDetails `json:"paymentDetails"`
}

// PlaceOrderResponse acknowledges a placed order.
type PlaceOrderResponse struct {
	OK      bool      `json:"ok"`
	OrderID uuid.UUID `json:"order_id"`
}

type OrderResponse struct {
	ID         uuid.UUID            `json:"id"`
	Status     model.OrderStatus    `json:"status"`
	TotalPrice decimal.Decimal      `json:"total_price"`
	Payment    model.PaymentDetails `json:"payment"`
	Items      []OrderItemResponse  `json:"items"`
	CreatedAt  time.Time            `json:"created_at"`
}

type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// --- Product ---

type CreateProductRequest struct {
	Name  string          `json:"name" binding:"required"`
	Brand string          `json:"brand"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price" binding:"required"`
	Stock int             `json:"stock" binding:"min=0"`
}

type ListProductsRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
}

type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

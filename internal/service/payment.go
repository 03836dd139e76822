package service

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/dto"
)

var (
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrAmountMismatch       = errors.New("paid amount does not match order total")
)

// Gateway is the server side of the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (dto.GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
	// FetchOrder returns the gateway's record of an order it issued.
	FetchOrder(ctx context.Context, orderID string) (dto.GatewayOrder, error)
}

type razorpayGateway struct {
	client *razorpay.Client
	secret string
}

func NewRazorpayGateway(keyID, keySecret string) Gateway {
	return &razorpayGateway{client: razorpay.NewClient(keyID, keySecret), secret: keySecret}
}

func (g *razorpayGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (dto.GatewayOrder, error) {
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return dto.GatewayOrder{}, fmt.Errorf("razorpay create order: %w", err)
	}

	order := dto.GatewayOrder{Amount: amount, Currency: currency}
	order.ID, _ = body["id"].(string)
	if v, ok := body["amount"].(float64); ok {
		order.Amount = int64(v)
	}
	if v, ok := body["currency"].(string); ok {
		order.Currency = v
	}
	if order.ID == "" {
		return dto.GatewayOrder{}, errors.New("razorpay create order: response has no id")
	}
	return order, nil
}

func (g *razorpayGateway) FetchOrder(_ context.Context, orderID string) (dto.GatewayOrder, error) {
	body, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return dto.GatewayOrder{}, fmt.Errorf("razorpay fetch order: %w", err)
	}
	order := dto.GatewayOrder{ID: orderID}
	v, ok := body["amount"].(float64)
	if !ok {
		return dto.GatewayOrder{}, errors.New("razorpay fetch order: response has no amount")
	}
	order.Amount = int64(v)
	order.Currency, _ = body["currency"].(string)
	return order, nil
}

func (g *razorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, g.secret)
}

// PaymentService brokers the key/order/verify handshake. The key secret never
// leaves the server.
type PaymentService struct {
	gateway  Gateway
	keyID    string
	currency string
}

func NewPaymentService(gateway Gateway, cfg config.GatewayConfig) *PaymentService {
	return &PaymentService{gateway: gateway, keyID: cfg.KeyID, currency: cfg.Currency}
}

func (s *PaymentService) PublicKey() (string, error) {
	if s.gateway == nil || s.keyID == "" {
		return "", ErrGatewayNotConfigured
	}
	return s.keyID, nil
}

// CreateOrder opens a gateway order for amount in minor units.
func (s *PaymentService) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (dto.GatewayOrder, error) {
	if s.gateway == nil {
		return dto.GatewayOrder{}, ErrGatewayNotConfigured
	}
	if amount <= 0 {
		return dto.GatewayOrder{}, ErrInvalidAmount
	}
	if currency == "" {
		currency = s.currency
	}
	return s.gateway.CreateOrder(ctx, amount, currency, receipt)
}

func (s *PaymentService) Verify(req dto.VerifyPaymentRequest) bool {
	if s.gateway == nil {
		return false
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return false
	}
	return s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
}

// CheckAmount confirms the gateway order was opened for exactly amount minor units.
func (s *PaymentService) CheckAmount(ctx context.Context, orderID string, amount int64) error {
	if s.gateway == nil {
		return ErrGatewayNotConfigured
	}
	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Amount != amount {
		return fmt.Errorf("%w: gateway %d, order %d", ErrAmountMismatch, order.Amount, amount)
	}
	return nil
}

package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/flicky/go-storefront/internal/dto"
)

type PaymentAPI interface {
	GatewayKey(ctx context.Context) (string, error)
	CreateGatewayOrder(ctx context.Context, amount int64, currency string) (dto.GatewayOrder, error)
	VerifyPayment(ctx context.Context, req dto.VerifyPaymentRequest) (bool, error)
}

// WidgetOptions is what the payment widget is opened with. Key is the
// gateway's public key; no secret ever reaches the widget.
type WidgetOptions struct {
	Key      string
	OrderID  string
	Amount   int64
	Currency string
	Name     string
	Email    string
	Phone    string
}

// WidgetResult is the gateway's proof of a completed payment.
type WidgetResult struct {
	OrderID   string
	PaymentID string
	Signature string
}

func (r WidgetResult) validate() error {
	switch {
	case r.OrderID == "":
		return &ValidationError{Field: "razorpay_order_id", Reason: "missing from payment response"}
	case r.PaymentID == "":
		return &ValidationError{Field: "razorpay_payment_id", Reason: "missing from payment response"}
	case r.Signature == "":
		return &ValidationError{Field: "razorpay_signature", Reason: "missing from payment response"}
	}
	return nil
}

// Widget collects a payment from the customer. Open blocks until the
// customer pays or dismisses it; dismissal returns ErrPaymentCancelled.
type Widget interface {
	Open(ctx context.Context, opts WidgetOptions) (WidgetResult, error)
}

// ScriptLoader makes the widget available before first use.
type ScriptLoader interface {
	Load(ctx context.Context) error
}

// LazyScript loads the widget script on first use and remembers success. A
// failed load is retried on the next call.
type LazyScript struct {
	load func(ctx context.Context) error

	mu     sync.Mutex
	loaded bool
}

func NewLazyScript(load func(ctx context.Context) error) *LazyScript {
	return &LazyScript{load: load}
}

func (s *LazyScript) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	if err := s.load(ctx); err != nil {
		return fmt.Errorf("load gateway script: %w: %w", ErrGatewayUnavailable, err)
	}
	s.loaded = true
	return nil
}

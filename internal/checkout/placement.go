package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type OrderAPI interface {
	PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest, idempotencyKey string) error
}

// OrderPlacer turns a selection of cart lines into an order in one request.
type OrderPlacer struct {
	api  OrderAPI
	cart *Cart
}

func NewOrderPlacer(api OrderAPI, cart *Cart) *OrderPlacer {
	return &OrderPlacer{api: api, cart: cart}
}

// Place submits the order and, once the backend acknowledges it, drops
// exactly the placed lines from the local cart. On failure the cart is left
// as it was.
func (p *OrderPlacer) Place(ctx context.Context, cartIDs []uuid.UUID, details model.PaymentDetails, idempotencyKey string) error {
	if err := ValidatePlacement(cartIDs, details); err != nil {
		return err
	}

	req := dto.PlaceOrderRequest{CartIDs: cartIDs, PaymentDetails: details}
	if err := p.api.PlaceOrder(ctx, req, idempotencyKey); err != nil {
		return fmt.Errorf("place order: %w", err)
	}

	p.cart.Discard(cartIDs...)
	return nil
}

// ValidatePlacement checks an order request before it is sent.
func ValidatePlacement(cartIDs []uuid.UUID, details model.PaymentDetails) error {
	if len(cartIDs) == 0 {
		return ErrEmptySelection
	}
	if !details.Provider.Valid() {
		return &ValidationError{Field: "provider", Reason: fmt.Sprintf("unsupported provider %q", details.Provider)}
	}
	if details.Provider == model.ProviderRazorpay {
		if details.RazorpayOrderID == "" {
			return &ValidationError{Field: "razorpay_order_id", Reason: "required"}
		}
		if details.RazorpayPaymentID == "" {
			return &ValidationError{Field: "razorpay_payment_id", Reason: "required"}
		}
	}
	return nil
}

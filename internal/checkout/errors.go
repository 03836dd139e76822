package checkout

import (
	"errors"
	"fmt"

	"github.com/flicky/go-storefront/internal/client"
)

var (
	ErrUnauthenticated    = client.ErrUnauthenticated
	ErrEmptySelection     = errors.New("selection empty")
	ErrUnknownLine        = errors.New("cart line not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrProfileIncomplete  = errors.New("profile incomplete")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrPaymentCancelled   = errors.New("payment cancelled")
	ErrVerificationFailed = errors.New("verification failed")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrIllegalTransition  = errors.New("illegal checkout state transition")
)

// ValidationError is a client-side rejection raised before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

func (l NoticeLevel) String() string {
	if l == NoticeError {
		return "error"
	}
	return "info"
}

// Notice is the user-visible rendering of an outcome.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Describe converts err into the message shown to the user. A nil error
// yields the zero Notice.
func Describe(err error) Notice {
	var (
		verr *client.ServiceError
		vald *ValidationError
	)
	switch {
	case err == nil:
		return Notice{}
	case errors.Is(err, ErrUnauthenticated):
		return Notice{NoticeError, "Your session has expired. Please sign in again."}
	case errors.Is(err, ErrPaymentCancelled):
		return Notice{NoticeInfo, "Payment cancelled. Your cart has not been changed."}
	case errors.Is(err, ErrProfileIncomplete):
		return Notice{NoticeInfo, "Please complete your profile and address to continue."}
	case errors.Is(err, ErrCheckoutInProgress):
		return Notice{NoticeInfo, "Your order is already being processed."}
	case errors.Is(err, ErrEmptySelection):
		return Notice{NoticeError, "Selection empty: choose at least one item to buy."}
	case errors.Is(err, ErrInvalidAmount):
		return Notice{NoticeError, "Invalid amount"}
	case errors.Is(err, ErrInvalidQuantity):
		return Notice{NoticeError, "Quantity must be at least 1."}
	case errors.Is(err, ErrUnknownLine):
		return Notice{NoticeError, "That item is no longer in your cart."}
	case errors.Is(err, ErrGatewayUnavailable):
		return Notice{NoticeError, "Payment gateway unavailable. Please try again later or choose cash on delivery."}
	case errors.Is(err, ErrVerificationFailed):
		return Notice{NoticeError, "Payment verification failed. If you were charged, please contact support with your payment ID."}
	case errors.As(err, &vald):
		return Notice{NoticeError, "Invalid " + vald.Field + ": " + vald.Reason}
	case errors.As(err, &verr):
		return Notice{NoticeError, "Could not " + verr.Op + ". Please try again."}
	default:
		return Notice{NoticeError, "Something went wrong. Please try again."}
	}
}

type Route string

const (
	RouteNone   Route = ""
	RouteLogin  Route = "/login"
	RouteOrders Route = "/orders"
)

// RedirectFor reports where the view must navigate after err.
func RedirectFor(err error) Route {
	if errors.Is(err, ErrUnauthenticated) {
		return RouteLogin
	}
	return RouteNone
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type Method string

const (
	MethodCOD     Method = "cod"
	MethodGateway Method = "razorpay"
)

type Request struct {
	CartIDs []uuid.UUID
	Method  Method
}

// Result is the outcome of one attempt as the view needs it.
type Result struct {
	AttemptID string
	State     State
	Trail     []State
	Notice    Notice
	Redirect  Route
	Err       error
}

type Deps struct {
	Cart     *Cart
	Gate     *Gate
	Session  *Session
	Payments PaymentAPI
	Orders   OrderAPI
	Script   ScriptLoader
	Widget   Widget
	Currency string
	Log      *slog.Logger
}

// Coordinator runs checkout attempts, at most one at a time. Busy reports
// whether the initiating control must be disabled.
type Coordinator struct {
	cart     *Cart
	gate     *Gate
	session  *Session
	payments PaymentAPI
	placer   *OrderPlacer
	script   ScriptLoader
	widget   Widget
	currency string
	log      *slog.Logger
	newKey   func() string

	mu     sync.Mutex
	busy   bool
	gen    uint64
	state  State
	cancel context.CancelFunc
}

func NewCoordinator(d Deps) *Coordinator {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	currency := d.Currency
	if currency == "" {
		currency = "INR"
	}
	return &Coordinator{
		cart:     d.Cart,
		gate:     d.Gate,
		session:  d.Session,
		payments: d.Payments,
		placer:   NewOrderPlacer(d.Orders, d.Cart),
		script:   d.Script,
		widget:   d.Widget,
		currency: currency,
		log:      log,
		newKey:   func() string { return uuid.NewString() },
		state:    StateIdle,
	}
}

func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close is called when the checkout view is torn down. It cancels any
// attempt in flight and clears the busy flag.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.busy = false
}

type attempt struct {
	c     *Coordinator
	id    string
	key   string
	state State
	trail []State
	log   *slog.Logger
}

func (a *attempt) advance(next State) error {
	if !CanTransition(a.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.state, next)
	}
	a.log.Debug("checkout transition", "from", a.state, "to", next)
	a.state = next
	a.trail = append(a.trail, next)
	a.c.mu.Lock()
	a.c.state = next
	a.c.mu.Unlock()
	return nil
}

func (a *attempt) result(err error) Result {
	r := Result{
		AttemptID: a.id,
		State:     a.state,
		Trail:     a.trail,
		Notice:    Describe(err),
		Redirect:  RedirectFor(err),
		Err:       err,
	}
	if a.state == StateSucceeded {
		r.Notice = Notice{NoticeInfo, "Order placed successfully."}
		r.Redirect = RouteOrders
	}
	return r
}

// fail moves the attempt to FAILED and reports err.
func (a *attempt) fail(err error) Result {
	if terr := a.advance(StateFailed); terr != nil {
		err = errors.Join(err, terr)
		a.state = StateFailed
	}
	a.log.Warn("checkout failed", "state", a.state, "error", err)
	return a.result(err)
}

// abort returns the attempt to IDLE without side effects.
func (a *attempt) abort(err error) Result {
	if terr := a.advance(StateIdle); terr != nil {
		return a.fail(errors.Join(err, terr))
	}
	a.log.Info("checkout aborted", "reason", err)
	return a.result(err)
}

// Checkout runs one attempt to completion. It never panics and always
// leaves the coordinator idle (not busy) when it returns.
func (c *Coordinator) Checkout(ctx context.Context, req Request) Result {
	c.mu.Lock()
	if c.busy {
		state := c.state
		c.mu.Unlock()
		return Result{State: state, Notice: Describe(ErrCheckoutInProgress), Err: ErrCheckoutInProgress}
	}
	ctx, cancel := context.WithCancel(ctx)
	c.gen++
	gen := c.gen
	c.busy = true
	c.cancel = cancel
	c.state = StateIdle
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		// A Close followed by a new attempt must not be released by this one.
		if c.gen == gen {
			c.busy = false
			c.cancel = nil
		}
		c.mu.Unlock()
	}()

	id := uuid.NewString()
	a := &attempt{
		c:     c,
		id:    id,
		key:   c.newKey(),
		state: StateIdle,
		trail: []State{StateIdle},
		log:   c.log.With("attempt", id, "method", req.Method),
	}
	return c.run(ctx, a, req)
}

func (c *Coordinator) run(ctx context.Context, a *attempt, req Request) Result {
	if err := a.advance(StateValidatingSelection); err != nil {
		return a.fail(err)
	}
	if req.Method != MethodCOD && req.Method != MethodGateway {
		return a.fail(&ValidationError{Field: "method", Reason: fmt.Sprintf("unsupported payment method %q", req.Method)})
	}
	items, err := c.cart.Select(req.CartIDs)
	if err != nil {
		return a.fail(err)
	}

	if err := a.advance(StateValidatingProfile); err != nil {
		return a.fail(err)
	}
	if !c.session.Authenticated() {
		return a.fail(ErrUnauthenticated)
	}
	profile, _ := c.session.Profile()
	if !IsComplete(profile) {
		c.gate.Reopen()
		return a.abort(ErrProfileIncomplete)
	}

	var details model.PaymentDetails
	switch req.Method {
	case MethodCOD:
		if err := a.advance(StateCODPath); err != nil {
			return a.fail(err)
		}
		details = model.CashOnDelivery()
	case MethodGateway:
		details, err = c.collectPayment(ctx, a, items, profile)
		if errors.Is(err, ErrPaymentCancelled) {
			return a.abort(err)
		}
		if err != nil {
			return a.fail(err)
		}
	}

	if err := a.advance(StatePlacingOrder); err != nil {
		return a.fail(err)
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if err := c.placer.Place(ctx, ids, details, a.key); err != nil {
		return a.fail(err)
	}
	if err := a.advance(StateSucceeded); err != nil {
		return a.fail(err)
	}
	a.log.Info("order placed", "lines", len(ids), "provider", details.Provider)
	return a.result(nil)
}

// collectPayment runs the gateway phases strictly in order: key, remote
// order, widget, server-side verification.
func (c *Coordinator) collectPayment(ctx context.Context, a *attempt, items []model.CartItem, profile model.UserProfile) (model.PaymentDetails, error) {
	amount := MinorUnits(c.cart.Pricing().Compute(items).GrandTotal)
	if amount <= 0 {
		return model.PaymentDetails{}, ErrInvalidAmount
	}

	if err := a.advance(StateGatewayKey); err != nil {
		return model.PaymentDetails{}, err
	}
	key, err := c.payments.GatewayKey(ctx)
	if err != nil {
		return model.PaymentDetails{}, fmt.Errorf("gateway key: %w", err)
	}

	if err := a.advance(StateGatewayOrder); err != nil {
		return model.PaymentDetails{}, err
	}
	order, err := c.payments.CreateGatewayOrder(ctx, amount, c.currency)
	if err != nil {
		return model.PaymentDetails{}, fmt.Errorf("gateway order: %w", err)
	}

	if err := a.advance(StateGatewayCollect); err != nil {
		return model.PaymentDetails{}, err
	}
	if c.script == nil || c.widget == nil {
		return model.PaymentDetails{}, ErrGatewayUnavailable
	}
	if err := c.script.Load(ctx); err != nil {
		if !errors.Is(err, ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
		}
		return model.PaymentDetails{}, err
	}
	paid, err := c.widget.Open(ctx, WidgetOptions{
		Key:      key,
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Name:     profile.FirstName + " " + profile.LastName,
		Email:    profile.Email,
		Phone:    profile.Phone,
	})
	if err != nil {
		return model.PaymentDetails{}, err
	}
	if err := paid.validate(); err != nil {
		return model.PaymentDetails{}, err
	}

	if err := a.advance(StateGatewayVerify); err != nil {
		return model.PaymentDetails{}, err
	}
	ok, err := c.payments.VerifyPayment(ctx, dto.VerifyPaymentRequest{
		RazorpayOrderID:   paid.OrderID,
		RazorpayPaymentID: paid.PaymentID,
		RazorpaySignature: paid.Signature,
	})
	if errors.Is(err, ErrUnauthenticated) {
		return model.PaymentDetails{}, err
	}
	if err != nil || !ok {
		a.log.Error("payment not verified", "payment_id", paid.PaymentID, "error", err)
		return model.PaymentDetails{}, errors.Join(ErrVerificationFailed, err)
	}

	return model.PaymentDetails{
		Provider:          model.ProviderRazorpay,
		RazorpayOrderID:   paid.OrderID,
		RazorpayPaymentID: paid.PaymentID,
		RazorpaySignature: paid.Signature,
		PaymentStatus:     model.PaymentStatusPaid,
	}, nil
}

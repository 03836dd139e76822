package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/checkout"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var (
	ErrEmptySelection     = errors.New("no cart items selected")
	ErrInvalidPayment     = errors.New("invalid payment details")
	ErrPaymentNotVerified = errors.New("payment not verified")
	ErrOrderInProgress    = errors.New("order with this idempotency key is in progress")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAccessDenied  = errors.New("access denied")
	ErrPaymentAlreadyUsed = errors.New("payment already used for another order")
)

const pendingMarker = "pending"

// OrderPublisher hands a placed order to asynchronous processing.
type OrderPublisher interface {
	Publish(ctx context.Context, msg model.OrderMessage) error
}

type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	payments    *PaymentService
	pricing     checkout.Pricing
	redisClient *redis.Client
	idemTTL     time.Duration
	publisher   OrderPublisher
	log         *slog.Logger
}

type OrderServiceDeps struct {
	Orders         repository.OrderRepository
	Carts          repository.CartRepository
	Payments       *PaymentService
	Pricing        checkout.Pricing
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Publisher      OrderPublisher
	Log            *slog.Logger
}

func NewOrderService(d OrderServiceDeps) *OrderService {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &OrderService{
		orderRepo:   d.Orders,
		cartRepo:    d.Carts,
		payments:    d.Payments,
		pricing:     d.Pricing,
		redisClient: d.Redis,
		idemTTL:     ttl,
		publisher:   d.Publisher,
		log:         log,
	}
}

// PlaceOrder turns the selected cart lines into one order and removes
// exactly those lines. A repeated request with the same idempotency key
// returns the order created by the first one.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req dto.PlaceOrderRequest, idemKey string) (*model.Order, error) {
	ids := dedupe(req.CartIDs)
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	payment, err := s.checkPayment(req.PaymentDetails)
	if err != nil {
		return nil, err
	}

	log := s.log.With("user_id", userID, "idempotency_key", idemKey)

	if idemKey != "" {
		existing, err := s.claimKey(ctx, userID, idemKey)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	order, err := s.create(ctx, userID, ids, payment, idemKey)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			return s.existingOrder(ctx, userID, idemKey)
		}
		s.releaseKey(ctx, userID, idemKey)
		return nil, err
	}
	s.recordKey(ctx, userID, idemKey, order.ID)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, model.OrderMessage{OrderID: order.ID, UserID: userID}); err != nil {
			log.Error("publish order", "order_id", order.ID, "error", err)
		}
	}
	log.Info("order placed", "order_id", order.ID, "lines", len(ids), "provider", payment.Provider)
	return order, nil
}

func (s *OrderService) checkPayment(p model.PaymentDetails) (model.PaymentDetails, error) {
	switch p.Provider {
	case model.ProviderCOD:
		return model.CashOnDelivery(), nil
	case model.ProviderRazorpay:
		if p.RazorpayOrderID == "" || p.RazorpayPaymentID == "" {
			return model.PaymentDetails{}, fmt.Errorf("%w: razorpay order and payment ids are required", ErrInvalidPayment)
		}
		if s.payments == nil || !s.payments.Verify(dto.VerifyPaymentRequest{
			RazorpayOrderID:   p.RazorpayOrderID,
			RazorpayPaymentID: p.RazorpayPaymentID,
			RazorpaySignature: p.RazorpaySignature,
		}) {
			return model.PaymentDetails{}, ErrPaymentNotVerified
		}
		p.PaymentStatus = model.PaymentStatusPaid
		return p, nil
	default:
		return model.PaymentDetails{}, fmt.Errorf("%w: unsupported provider %q", ErrInvalidPayment, p.Provider)
	}
}

func (s *OrderService) create(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, payment model.PaymentDetails, idemKey string) (*model.Order, error) {
	lines, err := s.cartRepo.ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("get selected cart items: %w", err)
	}
	if len(lines) != len(ids) {
		return nil, ErrCartItemNotFound
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, Price: l.Price,
		})
	}
	total := s.pricing.Compute(lines).GrandTotal
	if payment.Provider == model.ProviderRazorpay {
		if err := s.payments.CheckAmount(ctx, payment.RazorpayOrderID, checkout.MinorUnits(total)); err != nil {
			if errors.Is(err, ErrAmountMismatch) {
				return nil, err
			}
			return nil, fmt.Errorf("check payment amount: %w", err)
		}
	}

	order := &model.Order{
		UserID:         userID,
		Status:         model.OrderStatusCreated,
		TotalPrice:     total,
		Payment:        payment,
		IdempotencyKey: idemKey,
		Items:          items,
	}

	if err := s.orderRepo.CreateFromCart(ctx, order, ids); err != nil {
		if errors.Is(err, repository.ErrCartChanged) {
			return nil, ErrCartItemNotFound
		}
		if errors.Is(err, repository.ErrDuplicateOrder) {
			return nil, err
		}
		if errors.Is(err, repository.ErrPaymentReused) {
			return nil, ErrPaymentAlreadyUsed
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func (s *OrderService) existingOrder(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	order, err := s.orderRepo.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return nil, fmt.Errorf("get order by idempotency key: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	s.recordKey(ctx, userID, key, order.ID)
	return order, nil
}

func idemRedisKey(userID uuid.UUID, key string) string {
	return "checkout:idempotency:" + userID.String() + ":" + key
}

// claimKey reserves key for this request. It returns the earlier order when
// the key has already completed. Redis being down is not fatal; the unique
// index on orders still rejects duplicates.
func (s *OrderService) claimKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	if s.redisClient == nil {
		return nil, nil
	}
	rk := idemRedisKey(userID, key)
	ok, err := s.redisClient.SetNX(ctx, rk, pendingMarker, s.idemTTL).Result()
	if err != nil {
		s.log.Warn("claim idempotency key", "error", err)
		return nil, nil
	}
	if ok {
		return nil, nil
	}

	val, err := s.redisClient.Get(ctx, rk).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return nil, ErrOrderInProgress
	}
	orderID, err := uuid.Parse(val)
	if err != nil {
		return nil, ErrOrderInProgress
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) recordKey(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) {
	if s.redisClient == nil || key == "" {
		return
	}
	if err := s.redisClient.Set(ctx, idemRedisKey(userID, key), orderID.String(), s.idemTTL).Err(); err != nil {
		s.log.Warn("record idempotency key", "error", err)
	}
}

func (s *OrderService) releaseKey(ctx context.Context, userID uuid.UUID, key string) {
	if s.redisClient == nil || key == "" {
		return
	}
	s.redisClient.Del(ctx, idemRedisKey(userID, key))
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

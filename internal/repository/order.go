package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront/internal/model"
)

var (
	// ErrCartChanged means one of the selected cart lines no longer exists.
	ErrCartChanged = errors.New("selected cart lines changed")
	// ErrDuplicateOrder means an order with the same idempotency key exists.
	ErrDuplicateOrder = errors.New("duplicate order")
	// ErrPaymentReused means the gateway payment already settled another order.
	ErrPaymentReused = errors.New("payment already used by another order")
)

const paymentUniqueIndex = "uq_orders_razorpay_payment"

type OrderRepository interface {
	CreateFromCart(ctx context.Context, order *model.Order, cartIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateFromCart inserts order with its items and deletes the selected cart
// lines in one transaction. Lines outside cartIDs are never touched.
func (r *pgOrderRepo) CreateFromCart(ctx context.Context, order *model.Order, cartIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	var key *string
	if order.IdempotencyKey != "" {
		key = &order.IdempotencyKey
	}
	p := order.Payment
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, total_price, payment_provider, razorpay_order_id,
		   razorpay_payment_id, razorpay_signature, payment_status, idempotency_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Status, order.TotalPrice, p.Provider, p.RazorpayOrderID,
		p.RazorpayPaymentID, p.RazorpaySignature, p.PaymentStatus, key,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == paymentUniqueIndex {
				return ErrPaymentReused
			}
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		it := &order.Items[i]
		it.ID = uuid.New()
		it.OrderID = order.ID
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, name, quantity, price, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			it.ID, it.OrderID, it.ProductID, it.Name, it.Quantity, it.Price,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	ct, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2)`, order.UserID, cartIDs)
	if err != nil {
		return fmt.Errorf("delete ordered cart items: %w", err)
	}
	if ct.RowsAffected() != int64(len(cartIDs)) {
		return ErrCartChanged
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, status, total_price, payment_provider, razorpay_order_id,
	razorpay_payment_id, razorpay_signature, payment_status, COALESCE(idempotency_key, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.Payment.Provider, &o.Payment.RazorpayOrderID,
		&o.Payment.RazorpayPaymentID, &o.Payment.RazorpaySignature, &o.Payment.PaymentStatus,
		&o.IdempotencyKey, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.loadItems(ctx, []*model.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepo) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND idempotency_key = $2`, userID, key,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by idempotency key: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	ptrs := make([]*model.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := r.loadItems(ctx, ptrs); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *pgOrderRepo) loadItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, name, quantity, price FROM order_items
		 WHERE order_id = ANY($1) ORDER BY created_at, id`, ids,
	)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// UpdateStatus runs inside tx when one is given, otherwise on the pool.
func (r *pgOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	const query = `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`
	var err error
	if tx != nil {
		_, err = tx.Exec(ctx, query, id, status)
	} else {
		_, err = r.pool.Exec(ctx, query, id, status)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront/internal/model"
)

// CartRepository stores cart lines. Every call is scoped to the owning user;
// a line belonging to someone else behaves as if it did not exist.
type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	ListByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]model.CartItem, error)
	GetItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error)
	AddItem(ctx context.Context, userID uuid.UUID, item *model.CartItem) error
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

const cartColumns = `id, product_id, name, brand, size, color, price, quantity, image`

func scanCartItems(rows pgx.Rows) ([]model.CartItem, error) {
	defer rows.Close()
	items := []model.CartItem{}
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Brand, &it.Size, &it.Color, &it.Price, &it.Quantity, &it.Image); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pgCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return scanCartItems(rows)
}

func (r *pgCartRepo) ListByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]model.CartItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 AND id = ANY($2) ORDER BY created_at, id`,
		userID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("list selected cart items: %w", err)
	}
	return scanCartItems(rows)
}

func (r *pgCartRepo) GetItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	it := &model.CartItem{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 AND id = $2`, userID, itemID,
	).Scan(&it.ID, &it.ProductID, &it.Name, &it.Brand, &it.Size, &it.Color, &it.Price, &it.Quantity, &it.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return it, nil
}

// AddItem inserts item, or bumps the quantity of the existing line for the
// same product, size and color. The stored name, brand, price and image are
// the ones captured on first insert.
func (r *pgCartRepo) AddItem(ctx context.Context, userID uuid.UUID, item *model.CartItem) error {
	item.ID = uuid.New()
	query := `INSERT INTO cart_items (id, user_id, product_id, name, brand, size, color, price, quantity, image, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			  ON CONFLICT (user_id, product_id, size, color)
			  DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
			  RETURNING id, name, brand, price, quantity, image`
	err := r.pool.QueryRow(ctx, query,
		item.ID, userID, item.ProductID, item.Name, item.Brand, item.Size, item.Color,
		item.Price, item.Quantity, item.Image,
	).Scan(&item.ID, &item.Name, &item.Brand, &item.Price, &item.Quantity, &item.Image)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3, updated_at = NOW() WHERE user_id = $1 AND id = $2`,
		userID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

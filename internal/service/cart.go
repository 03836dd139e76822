package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
)

type CartService struct {
	cartRepo repository.CartRepository
	products *ProductService
}

func NewCartService(cartRepo repository.CartRepository, products *ProductService) *CartService {
	return &CartService{cartRepo: cartRepo, products: products}
}

func (s *CartService) List(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

// AddItem copies the product's current name, brand, price and image onto the
// new line. Later catalog changes do not reach lines already in the cart.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*model.CartItem, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	item := &model.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Brand:     product.Brand,
		Size:      req.Size,
		Color:     req.Color,
		Price:     product.Price,
		Quantity:  req.Quantity,
		Image:     product.Image,
	}
	if err := s.cartRepo.AddItem(ctx, userID, item); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	err := s.cartRepo.UpdateQuantity(ctx, userID, itemID, quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCartItemNotFound
	}
	return err
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	err := s.cartRepo.DeleteItem(ctx, userID, itemID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCartItemNotFound
	}
	return err
}

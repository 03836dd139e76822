package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/model"
)

var allTables = []string{"order_items", "orders", "cart_items", "products", "users"}

func seedUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Password: "h", FirstName: "C", LastName: "U", Role: "customer"}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func seedProduct(t *testing.T, price int64, stock int) *model.Product {
	t.Helper()
	p := &model.Product{Name: "Tee", Brand: "Acme", Price: decimal.NewFromInt(price), Stock: stock}
	require.NoError(t, NewProductRepository(testPool).Create(context.Background(), p))
	return p
}

func TestUserRepo_ProfileRoundTrip(t *testing.T) {
	requireDB(t)
	cleanupTable(t, allTables...)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "profile@example.com")
	user.Phone = "99"
	user.Address = model.Address{City: "Pune", Zip: "411001"}
	require.NoError(t, repo.UpdateProfile(ctx, user))

	found, err := repo.GetByEmail(ctx, "profile@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "99", found.Phone)
	assert.Equal(t, "Pune", found.Address.City)
	assert.Equal(t, "411001", found.Address.Zip)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCartRepo_AddMergesAndKeepsSnapshot(t *testing.T) {
	requireDB(t)
	cleanupTable(t, allTables...)
	repo := NewCartRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "cart@example.com")
	product := seedProduct(t, 15, 10)

	first := &model.CartItem{ProductID: product.ID, Name: "Tee", Price: product.Price, Quantity: 2, Size: "M"}
	require.NoError(t, repo.AddItem(ctx, user.ID, first))
	again := &model.CartItem{ProductID: product.ID, Name: "Renamed", Price: decimal.NewFromInt(99), Quantity: 1, Size: "M"}
	require.NoError(t, repo.AddItem(ctx, user.ID, again))

	items, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Tee", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(15)))

	other := seedUser(t, "other@example.com")
	assert.ErrorIs(t, repo.DeleteItem(ctx, other.ID, items[0].ID), pgx.ErrNoRows)
	require.NoError(t, repo.UpdateQuantity(ctx, user.ID, items[0].ID, 5))
	got, err := repo.GetItem(ctx, user.ID, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
}

func TestOrderRepo_CreateFromCartRemovesOnlySelected(t *testing.T) {
	requireDB(t)
	cleanupTable(t, allTables...)
	carts := NewCartRepository(testPool)
	orders := NewOrderRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "order@example.com")
	pa, pb := seedProduct(t, 100, 5), seedProduct(t, 50, 5)
	a := &model.CartItem{ProductID: pa.ID, Name: "A", Price: pa.Price, Quantity: 2}
	b := &model.CartItem{ProductID: pb.ID, Name: "B", Price: pb.Price, Quantity: 1}
	require.NoError(t, carts.AddItem(ctx, user.ID, a))
	require.NoError(t, carts.AddItem(ctx, user.ID, b))

	order := &model.Order{
		UserID: user.ID, Status: model.OrderStatusCreated, TotalPrice: decimal.NewFromInt(276),
		Payment: model.CashOnDelivery(), IdempotencyKey: "k1",
		Items: []model.OrderItem{{ProductID: pa.ID, Name: "A", Quantity: 2, Price: pa.Price}},
	}
	require.NoError(t, orders.CreateFromCart(ctx, order, []uuid.UUID{a.ID}))

	left, err := carts.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, b.ID, left[0].ID)

	found, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, model.ProviderCOD, found.Payment.Provider)
	assert.Equal(t, "k1", found.IdempotencyKey)

	dup := &model.Order{UserID: user.ID, Status: model.OrderStatusCreated, Payment: model.CashOnDelivery(), IdempotencyKey: "k1"}
	assert.ErrorIs(t, orders.CreateFromCart(ctx, dup, []uuid.UUID{b.ID}), ErrDuplicateOrder)

	stale := &model.Order{UserID: user.ID, Status: model.OrderStatusCreated, Payment: model.CashOnDelivery()}
	assert.ErrorIs(t, orders.CreateFromCart(ctx, stale, []uuid.UUID{a.ID}), ErrCartChanged)
	left, _ = carts.ListByUser(ctx, user.ID)
	assert.Len(t, left, 1, "a failed create must not delete anything")
}

func TestOrderRepo_StatusAndStock(t *testing.T) {
	requireDB(t)
	cleanupTable(t, allTables...)
	orders := NewOrderRepository(testPool)
	products := NewProductRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "stock@example.com")
	p := seedProduct(t, 10, 1)
	order := &model.Order{UserID: user.ID, Status: model.OrderStatusCreated, Payment: model.CashOnDelivery()}
	require.NoError(t, orders.CreateFromCart(ctx, order, nil))

	tx, err := orders.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, products.DecrementStock(ctx, tx, p.ID, 1))
	assert.ErrorIs(t, products.DecrementStock(ctx, tx, p.ID, 1), ErrInsufficientStock)
	require.NoError(t, tx.Rollback(ctx))

	require.NoError(t, orders.UpdateStatus(ctx, nil, order.ID, model.OrderStatusCompleted))
	list, err := orders.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.OrderStatusCompleted, list[0].Status)
}

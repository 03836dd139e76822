package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type mockAuth struct {
	resp         *dto.AuthResponse
	err          error
	lastRegister dto.RegisterRequest
}

func (m *mockAuth) Register(_ context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	m.lastRegister = req
	return m.resp, m.err
}

func (m *mockAuth) Login(_ context.Context, _ dto.LoginRequest) (*dto.AuthResponse, error) {
	return m.resp, m.err
}

type mockProfile struct {
	profile model.UserProfile
	err     error
	updates []dto.UpdateProfileRequest
	userIDs []uuid.UUID
}

func (m *mockProfile) Get(_ context.Context, userID uuid.UUID) (model.UserProfile, error) {
	m.userIDs = append(m.userIDs, userID)
	return m.profile, m.err
}

func (m *mockProfile) Update(_ context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (model.UserProfile, error) {
	m.userIDs = append(m.userIDs, userID)
	m.updates = append(m.updates, req)
	if m.err != nil {
		return model.UserProfile{}, m.err
	}
	if req.Phone != nil {
		m.profile.Phone = *req.Phone
	}
	if req.Address != nil {
		m.profile.Address = m.profile.Address.Merge(*req.Address)
	}
	return m.profile, nil
}

type mockProducts struct {
	product *dto.ProductResponse
	list    *dto.ProductListResponse
	err     error
	listReq dto.ListProductsRequest
}

func (m *mockProducts) Create(_ context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ProductResponse{ID: uuid.New(), Name: req.Name, Price: req.Price, Stock: req.Stock}, nil
}

func (m *mockProducts) GetByID(_ context.Context, _ uuid.UUID) (*dto.ProductResponse, error) {
	return m.product, m.err
}

func (m *mockProducts) List(_ context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	m.listReq = req
	return m.list, m.err
}

type cartCall struct {
	userID, itemID uuid.UUID
	quantity       int
}

type mockCart struct {
	items   []model.CartItem
	err     error
	updates []cartCall
	removes []cartCall
}

func (m *mockCart) List(_ context.Context, _ uuid.UUID) ([]model.CartItem, error) {
	return m.items, m.err
}

func (m *mockCart) AddItem(_ context.Context, _ uuid.UUID, req dto.AddCartItemRequest) (*model.CartItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.CartItem{ID: uuid.New(), ProductID: req.ProductID, Quantity: req.Quantity}, nil
}

func (m *mockCart) UpdateQuantity(_ context.Context, userID, itemID uuid.UUID, quantity int) error {
	m.updates = append(m.updates, cartCall{userID, itemID, quantity})
	return m.err
}

func (m *mockCart) Remove(_ context.Context, userID, itemID uuid.UUID) error {
	m.removes = append(m.removes, cartCall{userID: userID, itemID: itemID})
	return m.err
}

type mockPayments struct {
	key      string
	keyErr   error
	orderErr error
	valid    bool
	receipts []string
}

func (m *mockPayments) PublicKey() (string, error) {
	return m.key, m.keyErr
}

func (m *mockPayments) CreateOrder(_ context.Context, amount int64, currency, receipt string) (dto.GatewayOrder, error) {
	m.receipts = append(m.receipts, receipt)
	if m.orderErr != nil {
		return dto.GatewayOrder{}, m.orderErr
	}
	if currency == "" {
		currency = "INR"
	}
	return dto.GatewayOrder{ID: "order_1", Amount: amount, Currency: currency}, nil
}

func (m *mockPayments) Verify(_ dto.VerifyPaymentRequest) bool {
	return m.valid
}

type placeCall struct {
	userID uuid.UUID
	req    dto.PlaceOrderRequest
	key    string
}

type mockOrders struct {
	order  *model.Order
	orders []model.Order
	err    error
	placed []placeCall
}

func (m *mockOrders) PlaceOrder(_ context.Context, userID uuid.UUID, req dto.PlaceOrderRequest, idemKey string) (*model.Order, error) {
	m.placed = append(m.placed, placeCall{userID, req, idemKey})
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrders) GetByID(_ context.Context, _, _ uuid.UUID) (*model.Order, error) {
	return m.order, m.err
}

func (m *mockOrders) ListByUserID(_ context.Context, _ uuid.UUID) ([]model.Order, error) {
	return m.orders, m.err
}

package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

// mockBackend is an in-memory stand-in for the REST backend. Each *Err
// field, when set, is returned by the matching call.
type mockBackend struct {
	mu sync.Mutex

	lines   []model.CartItem
	profile model.UserProfile

	fetchErr, updateErr, removeErr, profileErr error
	keyErr, orderErr, verifyErr, placeErr      error
	verifyOK                                   bool

	calls      map[string]int
	placed     []dto.PlaceOrderRequest
	placedKeys []string
	amounts    []int64
	profileReq []dto.UpdateProfileRequest
}

func newMockBackend(lines ...model.CartItem) *mockBackend {
	return &mockBackend{lines: lines, verifyOK: true, calls: make(map[string]int)}
}

func (m *mockBackend) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockBackend) hit(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
}

func (m *mockBackend) FetchCart(_ context.Context) ([]model.CartItem, error) {
	m.hit("fetch")
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.CartItem, len(m.lines))
	copy(out, m.lines)
	return out, nil
}

func (m *mockBackend) UpdateCartLine(_ context.Context, id uuid.UUID, quantity int) error {
	m.hit("update")
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines {
		if m.lines[i].ID == id {
			m.lines[i].Quantity = quantity
		}
	}
	return nil
}

func (m *mockBackend) RemoveCartLine(_ context.Context, id uuid.UUID) error {
	m.hit("remove")
	if m.removeErr != nil {
		return m.removeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines {
		if m.lines[i].ID == id {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockBackend) UpdateProfile(_ context.Context, req dto.UpdateProfileRequest) (model.UserProfile, error) {
	m.hit("profile")
	if m.profileErr != nil {
		return model.UserProfile{}, m.profileErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileReq = append(m.profileReq, req)
	if req.Address != nil {
		m.profile.Address = m.profile.Address.Merge(*req.Address)
	}
	return m.profile, nil
}

func (m *mockBackend) GatewayKey(_ context.Context) (string, error) {
	m.hit("key")
	if m.keyErr != nil {
		return "", m.keyErr
	}
	return "rzp_test_public", nil
}

func (m *mockBackend) CreateGatewayOrder(_ context.Context, amount int64, currency string) (dto.GatewayOrder, error) {
	m.hit("order")
	if m.orderErr != nil {
		return dto.GatewayOrder{}, m.orderErr
	}
	m.mu.Lock()
	m.amounts = append(m.amounts, amount)
	m.mu.Unlock()
	return dto.GatewayOrder{ID: "order_test", Amount: amount, Currency: currency}, nil
}

func (m *mockBackend) VerifyPayment(_ context.Context, _ dto.VerifyPaymentRequest) (bool, error) {
	m.hit("verify")
	if m.verifyErr != nil {
		return false, m.verifyErr
	}
	return m.verifyOK, nil
}

func (m *mockBackend) PlaceOrder(_ context.Context, req dto.PlaceOrderRequest, key string) error {
	m.hit("place")
	if m.placeErr != nil {
		return m.placeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, req)
	m.placedKeys = append(m.placedKeys, key)
	return nil
}

type mockWidget struct {
	result WidgetResult
	err    error
	opened []WidgetOptions
	block  chan struct{}
}

func (w *mockWidget) Open(ctx context.Context, opts WidgetOptions) (WidgetResult, error) {
	w.opened = append(w.opened, opts)
	if w.block != nil {
		select {
		case <-w.block:
		case <-ctx.Done():
			return WidgetResult{}, ctx.Err()
		}
	}
	if w.err != nil {
		return WidgetResult{}, w.err
	}
	return w.result, nil
}

func line(price int64, qty int) model.CartItem {
	return model.CartItem{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Name:      "item",
		Price:     decimal.NewFromInt(price),
		Quantity:  qty,
	}
}

func completeProfile() model.UserProfile {
	return model.UserProfile{
		FirstName: "Asha", LastName: "Rao", Email: "asha@example.com",
		Phone: "9999999999", Gender: "female", DOB: "1990-01-01",
		Address: model.Address{
			City: "Pune", State: "MH", Country: "IN", Zip: "411001", AddressVillage: "Kothrud",
			PersonalAddress: "12 MG Road",
		},
	}
}

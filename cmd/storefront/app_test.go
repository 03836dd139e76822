package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/checkout"
	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type fakeAPI struct {
	mu      sync.Mutex
	lines   []model.CartItem
	profile model.UserProfile
	placed  []dto.PlaceOrderRequest
}

func (f *fakeAPI) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, dto.CartListResponse{Data: f.lines})
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, dto.ProfileResponse{User: f.profile})
	})
	mux.HandleFunc("PATCH /profile", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req := dto.ParseProfileForm(func(key string) (string, bool) {
			v, ok := r.PostForm[key]
			if !ok || len(v) == 0 {
				return "", false
			}
			return v[0], true
		})
		f.mu.Lock()
		defer f.mu.Unlock()
		if req.Address != nil {
			f.profile.Address = f.profile.Address.Merge(*req.Address)
		}
		writeJSON(w, dto.ProfileResponse{User: f.profile})
	})
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var req dto.PlaceOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.placed = append(f.placed, req)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, dto.AckResponse{OK: true})
	})
	return mux
}

func newTestApp(t *testing.T, api *fakeAPI, input string) (*app, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	cfg := &config.ClientConfig{
		APIBaseURL:  srv.URL,
		Token:       "tok",
		Timeout:     5 * time.Second,
		ShippingFee: decimal.NewFromInt(40),
		TaxRate:     decimal.RequireFromString("0.18"),
		Currency:    "INR",
	}
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newApp(cfg, log, strings.NewReader(input), &out), &out
}

func cartLine(name string, price int64, qty int) model.CartItem {
	return model.CartItem{ID: uuid.New(), ProductID: uuid.New(), Name: name, Price: decimal.NewFromInt(price), Quantity: qty}
}

func fullProfile() model.UserProfile {
	return model.UserProfile{
		FirstName: "Asha", LastName: "Rao", Email: "asha@example.com",
		Phone: "9999999999", Gender: "female", DOB: "1990-01-01",
		Address: model.Address{
			City: "Pune", State: "MH", Country: "IN", Zip: "411001",
			AddressVillage: "Kothrud", PersonalAddress: "12 MG Road",
		},
	}
}

func TestParseIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	got, err := parseIDs(" " + a.String() + ",," + b.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, got)

	got, err = parseIDs("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseIDs("nope")
	assert.Error(t, err)
}

func TestShowCart(t *testing.T) {
	api := &fakeAPI{lines: []model.CartItem{cartLine("Shoe", 100, 2), cartLine("Sock", 50, 1)}, profile: fullProfile()}
	a, out := newTestApp(t, api, "")

	require.NoError(t, a.showCart(context.Background()))
	assert.Contains(t, out.String(), "Shoe")
	assert.Contains(t, out.String(), "Subtotal  250.00")
	assert.Contains(t, out.String(), "Total     335.00")
}

func TestShowCart_NoToken(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "")
	a.cfg.Token = ""
	assert.ErrorContains(t, a.showCart(context.Background()), "STOREFRONT_TOKEN")
}

func TestCheckout_CODPromptsForMissingAddress(t *testing.T) {
	shoe, sock := cartLine("Shoe", 100, 2), cartLine("Sock", 50, 1)
	profile := fullProfile()
	profile.Address.State = ""
	api := &fakeAPI{lines: []model.CartItem{shoe, sock}, profile: profile}

	// state, zip, country, landmark
	a, out := newTestApp(t, api, "MH\n\n\n\n")

	require.NoError(t, a.checkout(context.Background(), []uuid.UUID{shoe.ID}, "cod"))
	assert.Contains(t, out.String(), "Profile updated.")
	assert.Contains(t, out.String(), "Order placed successfully.")

	require.Len(t, api.placed, 1)
	assert.Equal(t, []uuid.UUID{shoe.ID}, api.placed[0].CartIDs)
	assert.Equal(t, model.ProviderCOD, api.placed[0].PaymentDetails.Provider)
	assert.Equal(t, "MH", api.profile.Address.State)

	items := a.cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, sock.ID, items[0].ID)
}

func TestCheckout_EmptySelection(t *testing.T) {
	api := &fakeAPI{lines: []model.CartItem{cartLine("Shoe", 100, 1)}, profile: fullProfile()}
	a, out := newTestApp(t, api, "")

	err := a.checkout(context.Background(), nil, "cod")
	assert.ErrorIs(t, err, checkout.ErrEmptySelection)
	assert.Contains(t, out.String(), "Selection empty")
	assert.Empty(t, api.placed)
}

func TestPromptWidget(t *testing.T) {
	opts := checkout.WidgetOptions{Key: "rzp", OrderID: "order_1", Amount: 33500, Currency: "INR"}

	var out bytes.Buffer
	w := &promptWidget{in: bufio.NewScanner(strings.NewReader("pay_1\nsig\n")), out: &out}
	res, err := w.Open(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, checkout.WidgetResult{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}, res)
	assert.Contains(t, out.String(), "INR 33500")

	w = &promptWidget{in: bufio.NewScanner(strings.NewReader("\n")), out: &out}
	_, err = w.Open(context.Background(), opts)
	assert.ErrorIs(t, err, checkout.ErrPaymentCancelled)
}

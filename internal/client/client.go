// Package client talks to the storefront REST backend on behalf of a
// signed-in customer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

var (
	// ErrUnauthenticated is returned for any 401. Callers send the user to
	// the login flow instead of showing a generic error.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTransient marks network failures and non-2xx responses. The user
	// may retry.
	ErrTransient = errors.New("service unavailable")
	// ErrNotAcknowledged is returned when a 2xx response lacks the expected
	// success marker.
	ErrNotAcknowledged = errors.New("request not acknowledged")
)

// ServiceError describes a failed backend call.
type ServiceError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransient}
	}
	return []error{ErrTransient, e.Err}
}

// TokenSource supplies the session bearer token for each request.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func New(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, tokens: tokens}
}

func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", dto.LoginRequest{Email: email, Password: password}, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FetchCart(ctx context.Context) ([]model.CartItem, error) {
	var resp dto.CartListResponse
	if err := c.doJSON(ctx, "fetch cart", http.MethodGet, "/cart", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []model.CartItem{}
	}
	return resp.Data, nil
}

func (c *Client) UpdateCartLine(ctx context.Context, id uuid.UUID, quantity int) error {
	var resp dto.MessageResponse
	err := c.doJSON(ctx, "update cart line", http.MethodPatch, "/cart/"+id.String(),
		dto.UpdateCartItemRequest{Quantity: quantity}, nil, &resp)
	if err != nil {
		return err
	}
	return expectMsg("update cart line", resp.Msg, dto.MsgCartUpdated)
}

func (c *Client) RemoveCartLine(ctx context.Context, id uuid.UUID) error {
	var resp dto.MessageResponse
	if err := c.doJSON(ctx, "remove cart line", http.MethodDelete, "/cart/"+id.String(), nil, nil, &resp); err != nil {
		return err
	}
	return expectMsg("remove cart line", resp.Msg, dto.MsgProductRemoved)
}

func (c *Client) GetProfile(ctx context.Context) (model.UserProfile, error) {
	var resp dto.ProfileResponse
	if err := c.doJSON(ctx, "get profile", http.MethodGet, "/profile", nil, nil, &resp); err != nil {
		return model.UserProfile{}, err
	}
	return resp.User, nil
}

// UpdateProfile sends only the provided fields as multipart/form-data.
func (c *Client) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (model.UserProfile, error) {
	fields := req.FormFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return model.UserProfile{}, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return model.UserProfile{}, fmt.Errorf("close form: %w", err)
	}

	var resp dto.ProfileResponse
	if err := c.do(ctx, "update profile", http.MethodPatch, "/profile", &body, w.FormDataContentType(), nil, &resp); err != nil {
		return model.UserProfile{}, err
	}
	return resp.User, nil
}

// GatewayKey returns the payment gateway's public client key.
func (c *Client) GatewayKey(ctx context.Context) (string, error) {
	var resp dto.GatewayKeyResponse
	if err := c.doJSON(ctx, "get gateway key", http.MethodGet, "/payments/key", nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.Key == "" {
		return "", &ServiceError{Op: "get gateway key", Status: http.StatusOK, Message: "empty key", Err: ErrNotAcknowledged}
	}
	return resp.Key, nil
}

// CreateGatewayOrder asks the backend to open a provider-side order. amount
// is in minor currency units.
func (c *Client) CreateGatewayOrder(ctx context.Context, amount int64, currency string) (dto.GatewayOrder, error) {
	var resp dto.GatewayOrderResponse
	err := c.doJSON(ctx, "create gateway order", http.MethodPost, "/payments/orders",
		dto.CreateGatewayOrderRequest{Amount: amount, Currency: currency}, nil, &resp)
	if err != nil {
		return dto.GatewayOrder{}, err
	}
	if resp.Order.ID == "" {
		return dto.GatewayOrder{}, &ServiceError{Op: "create gateway order", Status: http.StatusOK, Message: "missing order id", Err: ErrNotAcknowledged}
	}
	return resp.Order, nil
}

// VerifyPayment reports the backend's verdict on a payment signature. Only
// an explicit ok=true counts as verified.
func (c *Client) VerifyPayment(ctx context.Context, req dto.VerifyPaymentRequest) (bool, error) {
	var resp dto.AckResponse
	if err := c.doJSON(ctx, "verify payment", http.MethodPost, "/payments/verify", req, nil, &resp); err != nil {
		return false, err
	}
	return resp.OK, nil
}

// PlaceOrder submits the order. A 2xx without ok=true is a failure.
func (c *Client) PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest, idempotencyKey string) error {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(dto.IdempotencyHeader, idempotencyKey)
	}
	var resp dto.AckResponse
	if err := c.doJSON(ctx, "place order", http.MethodPost, "/orders", req, header, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return &ServiceError{Op: "place order", Status: http.StatusOK, Err: ErrNotAcknowledged}
	}
	return nil
}

func expectMsg(op, got, want string) error {
	if got != want {
		return &ServiceError{Op: op, Status: http.StatusOK, Message: fmt.Sprintf("unexpected message %q", got), Err: ErrNotAcknowledged}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in any, header http.Header, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, body, contentType, header, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		return &ServiceError{Op: op, Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Op: op, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Gender    string
	DOB       string
	Address   Address
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile returns the customer-facing subset of the user record.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Gender:    u.Gender,
		DOB:       u.DOB,
		Address:   u.Address,
	}
}

type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Gender    string    `json:"gender"`
	DOB       string    `json:"dob"`
	Address   Address   `json:"address"`
}

// UnmarshalJSON decodes each field on its own. Numbers and booleans become
// text and any other mistyped field is left empty, so one bad value makes
// the profile incomplete rather than unreadable.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	text := func(key string) string {
		raw, ok := fields[key]
		if !ok {
			return ""
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return ""
		}
		return scalar(v)
	}

	*p = UserProfile{
		FirstName: text("first_name"),
		LastName:  text("last_name"),
		Email:     text("email"),
		Phone:     text("phone"),
		Gender:    text("gender"),
		DOB:       text("dob"),
		Address:   ParseAddress(fields["address"]),
	}
	if id, err := uuid.Parse(text("id")); err == nil {
		p.ID = id
	}
	return nil
}

type Product struct {
	ID        uuid.UUID
	Name      string
	Brand     string
	Image     string
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one persisted cart line. Name, Brand, Size, Color, Price and
// Image are copies taken when the product was added and are never re-derived
// from the live product.
type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// LineTotal is price × quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
)

type Order struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Status         OrderStatus
	TotalPrice     decimal.Decimal
	Payment        PaymentDetails
	IdempotencyKey string
	Items          []OrderItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

type OrderMessage struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}

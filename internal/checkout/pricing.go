package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

// Pricing holds the fixed shipping fee and tax rate applied to a cart.
type Pricing struct {
	Shipping decimal.Decimal
	TaxRate  decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		Shipping: decimal.NewFromInt(40),
		TaxRate:  decimal.RequireFromString("0.18"),
	}
}

type Totals struct {
	Subtotal   decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// Compute prices items. Shipping is charged only when there is something to
// pay for, so an empty or zero-value selection totals zero.
func (p Pricing) Compute(items []model.CartItem) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	if !subtotal.IsPositive() {
		return Totals{Subtotal: subtotal, Shipping: decimal.Zero, Tax: decimal.Zero, GrandTotal: subtotal}
	}
	tax := subtotal.Mul(p.TaxRate)
	return Totals{
		Subtotal:   subtotal,
		Shipping:   p.Shipping,
		Tax:        tax,
		GrandTotal: subtotal.Add(p.Shipping).Add(tax),
	}
}

// FormattedTotals is Totals rendered for display.
type FormattedTotals struct {
	Subtotal   string
	Shipping   string
	Tax        string
	GrandTotal string
}

func (t Totals) Format() FormattedTotals {
	return FormattedTotals{
		Subtotal:   t.Subtotal.StringFixed(2),
		Shipping:   t.Shipping.StringFixed(2),
		Tax:        t.Tax.StringFixed(2),
		GrandTotal: t.GrandTotal.StringFixed(2),
	}
}

// MinorUnits converts an amount to the gateway's minor currency unit
// (paise for INR), rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

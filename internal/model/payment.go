package model

type PaymentProvider string

const (
	ProviderRazorpay PaymentProvider = "razorpay"
	ProviderCOD      PaymentProvider = "cod"
)

func (p PaymentProvider) Valid() bool {
	return p == ProviderRazorpay || p == ProviderCOD
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PaymentDetails is the resolved outcome of a checkout attempt's payment step.
type PaymentDetails struct {
	Provider          PaymentProvider `json:"provider"`
	RazorpayOrderID   string          `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string          `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string          `json:"razorpay_signature,omitempty"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus,omitempty"`
}

// CashOnDelivery is the fixed payment outcome of the COD path.
func CashOnDelivery() PaymentDetails {
	return PaymentDetails{Provider: ProviderCOD, PaymentStatus: PaymentStatusPending}
}

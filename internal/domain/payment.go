package domain

import "time"

type PaymentProvider string

const (
	ProviderMonCash PaymentProvider = "moncash"
	ProviderPayPal  PaymentProvider = "paypal"
	ProviderStripe  PaymentProvider = "stripe"
)

func ParsePaymentProvider(s string) (PaymentProvider, bool) {
	switch PaymentProvider(s) {
	case ProviderMonCash, ProviderPayPal, ProviderStripe:
		return PaymentProvider(s), true
	default:
		return "", false
	}
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment is one attempt to collect a booking's total through a provider.
// ProviderReference is the provider's own transaction/order id; it may be
// empty until the first webhook for the attempt arrives. A completed
// payment is immutable except for a later refund.
type Payment struct {
	ID                string          `json:"id"`
	BookingID         string          `json:"booking_id"`
	Provider          PaymentProvider `json:"provider"`
	ProviderReference string          `json:"provider_reference,omitempty"`
	Amount            int64           `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
	RawPayload        []byte          `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
}

package payments

import (
	"errors"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

// ErrUnhandled marks a well-formed notification of a kind this system
// does not consume. The webhook layer acknowledges these so the provider
// stops retrying.
var ErrUnhandled = errors.New("unhandled provider event")

// Outcome is the provider-agnostic verdict of a webhook. Each adapter maps
// its provider's status vocabulary onto these four values so the
// reconciler never sees provider-specific strings.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomePending   Outcome = "pending"
	OutcomeRefunded  Outcome = "refunded"
)

// Event is one normalized provider notification.
//
// ProviderReference identifies the payment attempt at the provider (order
// or intent id); ProviderTransactionID identifies this specific
// notification's underlying transaction and forms the idempotency key
// together with the provider name. BookingID is a hint for the fallback
// lookup when the reference is not yet on file.
type Event struct {
	Provider              domain.PaymentProvider
	ProviderReference     string
	ProviderTransactionID string
	BookingID             string
	Amount                int64
	Currency              string
	Outcome               Outcome
	Raw                   []byte
}

// Adapter normalizes one provider's native webhook payload. Adapters are
// pure: no I/O, no state.
type Adapter interface {
	Provider() domain.PaymentProvider
	Normalize(raw []byte) (Event, error)
}

// Registry maps provider names to their adapters for webhook routing.
type Registry map[domain.PaymentProvider]Adapter

func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		r[a.Provider()] = a
	}
	return r
}

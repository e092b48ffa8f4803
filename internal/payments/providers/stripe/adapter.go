// Package stripe normalizes Stripe webhook events and verifies their
// signatures.
package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/internal/payments"
)

// metadataBookingKey is set on the PaymentIntent at checkout so webhooks
// can be tied back to a booking before the intent id is on file.
const metadataBookingKey = "booking_id"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Provider() domain.PaymentProvider { return domain.ProviderStripe }

// VerifySignature checks the Stripe-Signature header against the webhook
// signing secret. An empty secret disables verification (local dev).
func VerifySignature(payload []byte, sigHeader, secret string) error {
	if secret == "" {
		return nil
	}
	if _, err := webhook.ConstructEvent(payload, sigHeader, secret); err != nil {
		return fmt.Errorf("stripe: signature verification: %w", err)
	}
	return nil
}

func (a *Adapter) Normalize(raw []byte) (payments.Event, error) {
	var ev stripeapi.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return payments.Event{}, fmt.Errorf("stripe: decode event: %w", err)
	}
	if ev.ID == "" {
		return payments.Event{}, fmt.Errorf("stripe: missing event id")
	}

	switch string(ev.Type) {
	case "payment_intent.succeeded":
		return a.fromIntent(ev, payments.OutcomeSucceeded, raw)
	case "payment_intent.payment_failed":
		return a.fromIntent(ev, payments.OutcomeFailed, raw)
	case "payment_intent.processing":
		return a.fromIntent(ev, payments.OutcomePending, raw)
	case "charge.refunded":
		return a.fromCharge(ev, raw)
	default:
		return payments.Event{}, fmt.Errorf("stripe: event type %q: %w", ev.Type, payments.ErrUnhandled)
	}
}

func (a *Adapter) fromIntent(ev stripeapi.Event, outcome payments.Outcome, raw []byte) (payments.Event, error) {
	var pi stripeapi.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return payments.Event{}, fmt.Errorf("stripe: decode payment intent: %w", err)
	}
	if pi.ID == "" {
		return payments.Event{}, fmt.Errorf("stripe: missing payment intent id")
	}
	return payments.Event{
		Provider:              domain.ProviderStripe,
		ProviderReference:     pi.ID,
		ProviderTransactionID: ev.ID,
		BookingID:             pi.Metadata[metadataBookingKey],
		Amount:                pi.Amount,
		Currency:              strings.ToUpper(string(pi.Currency)),
		Outcome:               outcome,
		Raw:                   raw,
	}, nil
}

func (a *Adapter) fromCharge(ev stripeapi.Event, raw []byte) (payments.Event, error) {
	var ch stripeapi.Charge
	if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
		return payments.Event{}, fmt.Errorf("stripe: decode charge: %w", err)
	}
	reference := ""
	if ch.PaymentIntent != nil {
		reference = ch.PaymentIntent.ID
	}
	if reference == "" {
		reference = ch.ID
	}
	return payments.Event{
		Provider:              domain.ProviderStripe,
		ProviderReference:     reference,
		ProviderTransactionID: ev.ID,
		BookingID:             ch.Metadata[metadataBookingKey],
		Amount:                ch.AmountRefunded,
		Currency:              strings.ToUpper(string(ch.Currency)),
		Outcome:               payments.OutcomeRefunded,
		Raw:                   raw,
	}, nil
}

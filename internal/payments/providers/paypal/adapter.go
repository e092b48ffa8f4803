// Package paypal normalizes PayPal capture webhook events.
package paypal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/internal/payments"
)

type webhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
		CustomID          string `json:"custom_id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Provider() domain.PaymentProvider { return domain.ProviderPayPal }

func (a *Adapter) Normalize(raw []byte) (payments.Event, error) {
	var ev webhookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return payments.Event{}, fmt.Errorf("paypal: decode payload: %w", err)
	}
	if ev.ID == "" || ev.Resource.ID == "" {
		return payments.Event{}, fmt.Errorf("paypal: missing event or resource id")
	}

	var outcome payments.Outcome
	switch ev.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		outcome = payments.OutcomeSucceeded
	case "PAYMENT.CAPTURE.DENIED":
		outcome = payments.OutcomeFailed
	case "PAYMENT.CAPTURE.PENDING":
		outcome = payments.OutcomePending
	case "PAYMENT.CAPTURE.REFUNDED":
		outcome = payments.OutcomeRefunded
	default:
		return payments.Event{}, fmt.Errorf("paypal: event type %q: %w", ev.EventType, payments.ErrUnhandled)
	}

	amount, err := parseAmount(ev.Resource.Amount.Value)
	if err != nil {
		return payments.Event{}, fmt.Errorf("paypal: amount %q: %w", ev.Resource.Amount.Value, err)
	}

	// The capture keeps the order id in supplementary data; our order id
	// is the booking id we handed PayPal at checkout.
	bookingID := ev.Resource.SupplementaryData.RelatedIDs.OrderID
	if bookingID == "" {
		bookingID = ev.Resource.CustomID
	}

	return payments.Event{
		Provider:              domain.ProviderPayPal,
		ProviderReference:     ev.Resource.ID,
		ProviderTransactionID: ev.ID,
		BookingID:             bookingID,
		Amount:                amount,
		Currency:              ev.Resource.Amount.CurrencyCode,
		Outcome:               outcome,
		Raw:                   raw,
	}, nil
}

// parseAmount converts PayPal's decimal string (e.g. "1520.00") to minor
// units. HTG has zero decimal places, so the fractional part is dropped
// after validation.
func parseAmount(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	whole, frac, _ := strings.Cut(v, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	if frac != "" {
		if _, err := strconv.ParseUint(frac, 10, 64); err != nil {
			return 0, err
		}
	}
	return n, nil
}

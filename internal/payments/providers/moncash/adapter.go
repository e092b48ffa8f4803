// Package moncash normalizes Digicel MonCash payment notifications.
package moncash

import (
	"encoding/json"
	"fmt"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/internal/payments"
)

// payload is the notification body MonCash posts after a payment attempt.
// The orderId carries back whatever we passed when creating the payment,
// which is the booking id.
type payload struct {
	TransactionID string `json:"transactionId"`
	OrderID       string `json:"orderId"`
	Cost          int64  `json:"cost"`
	Currency      string `json:"currency"`
	Message       string `json:"message"`
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Provider() domain.PaymentProvider { return domain.ProviderMonCash }

func (a *Adapter) Normalize(raw []byte) (payments.Event, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return payments.Event{}, fmt.Errorf("moncash: decode payload: %w", err)
	}
	if p.TransactionID == "" {
		return payments.Event{}, fmt.Errorf("moncash: missing transactionId")
	}

	var outcome payments.Outcome
	switch p.Message {
	case "successful":
		outcome = payments.OutcomeSucceeded
	case "failed":
		outcome = payments.OutcomeFailed
	case "pending":
		outcome = payments.OutcomePending
	case "refunded":
		outcome = payments.OutcomeRefunded
	default:
		return payments.Event{}, fmt.Errorf("moncash: message %q: %w", p.Message, payments.ErrUnhandled)
	}

	currency := p.Currency
	if currency == "" {
		currency = "HTG"
	}

	return payments.Event{
		Provider:              domain.ProviderMonCash,
		ProviderReference:     p.TransactionID,
		ProviderTransactionID: p.TransactionID,
		BookingID:             p.OrderID,
		Amount:                p.Cost,
		Currency:              currency,
		Outcome:               outcome,
		Raw:                   raw,
	}, nil
}

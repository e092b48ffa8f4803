package moncash

import (
	"errors"
	"testing"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/internal/payments"
)

func TestNormalize(t *testing.T) {
	raw := []byte(`{
		"transactionId": "2199afd8",
		"orderId": "booking-123",
		"cost": 5000,
		"currency": "HTG",
		"message": "successful"
	}`)

	ev, err := New().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.Provider != domain.ProviderMonCash {
		t.Errorf("provider = %s", ev.Provider)
	}
	if ev.ProviderTransactionID != "2199afd8" || ev.ProviderReference != "2199afd8" {
		t.Errorf("ids = %q/%q, want 2199afd8", ev.ProviderTransactionID, ev.ProviderReference)
	}
	if ev.BookingID != "booking-123" {
		t.Errorf("booking id = %q", ev.BookingID)
	}
	if ev.Amount != 5000 || ev.Currency != "HTG" {
		t.Errorf("amount = %d %s", ev.Amount, ev.Currency)
	}
	if ev.Outcome != payments.OutcomeSucceeded {
		t.Errorf("outcome = %s", ev.Outcome)
	}
}

func TestNormalizeOutcomes(t *testing.T) {
	cases := map[string]payments.Outcome{
		"successful": payments.OutcomeSucceeded,
		"failed":     payments.OutcomeFailed,
		"pending":    payments.OutcomePending,
		"refunded":   payments.OutcomeRefunded,
	}
	for msg, want := range cases {
		raw := []byte(`{"transactionId":"t1","orderId":"b1","cost":1,"message":"` + msg + `"}`)
		ev, err := New().Normalize(raw)
		if err != nil {
			t.Errorf("%s: %v", msg, err)
			continue
		}
		if ev.Outcome != want {
			t.Errorf("%s: outcome = %s, want %s", msg, ev.Outcome, want)
		}
	}
}

func TestNormalizeDefaultsCurrencyToHTG(t *testing.T) {
	raw := []byte(`{"transactionId":"t1","orderId":"b1","cost":1,"message":"successful"}`)
	ev, err := New().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.Currency != "HTG" {
		t.Errorf("currency = %q, want HTG", ev.Currency)
	}
}

func TestNormalizeRejects(t *testing.T) {
	if _, err := New().Normalize([]byte(`not json`)); err == nil {
		t.Error("malformed json accepted")
	}
	if _, err := New().Normalize([]byte(`{"orderId":"b1","message":"successful"}`)); err == nil {
		t.Error("missing transactionId accepted")
	}
	_, err := New().Normalize([]byte(`{"transactionId":"t1","message":"exploded"}`))
	if !errors.Is(err, payments.ErrUnhandled) {
		t.Errorf("unknown message: got %v, want ErrUnhandled", err)
	}
}

package paypal

import (
	"errors"
	"testing"

	"github.com/lakayhq/lakay-bookings/internal/payments"
)

func captureEvent(eventType string) []byte {
	return []byte(`{
		"id": "WH-58D329510W",
		"event_type": "` + eventType + `",
		"resource": {
			"id": "42311647XV020574X",
			"status": "COMPLETED",
			"amount": {"value": "1520.00", "currency_code": "HTG"},
			"supplementary_data": {"related_ids": {"order_id": "booking-777"}}
		}
	}`)
}

func TestNormalizeCompleted(t *testing.T) {
	ev, err := New().Normalize(captureEvent("PAYMENT.CAPTURE.COMPLETED"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.ProviderTransactionID != "WH-58D329510W" {
		t.Errorf("tx id = %q", ev.ProviderTransactionID)
	}
	if ev.ProviderReference != "42311647XV020574X" {
		t.Errorf("reference = %q", ev.ProviderReference)
	}
	if ev.BookingID != "booking-777" {
		t.Errorf("booking id = %q", ev.BookingID)
	}
	if ev.Amount != 1520 || ev.Currency != "HTG" {
		t.Errorf("amount = %d %s, want 1520 HTG", ev.Amount, ev.Currency)
	}
	if ev.Outcome != payments.OutcomeSucceeded {
		t.Errorf("outcome = %s", ev.Outcome)
	}
}

func TestNormalizeOutcomes(t *testing.T) {
	cases := map[string]payments.Outcome{
		"PAYMENT.CAPTURE.COMPLETED": payments.OutcomeSucceeded,
		"PAYMENT.CAPTURE.DENIED":    payments.OutcomeFailed,
		"PAYMENT.CAPTURE.PENDING":   payments.OutcomePending,
		"PAYMENT.CAPTURE.REFUNDED":  payments.OutcomeRefunded,
	}
	for eventType, want := range cases {
		ev, err := New().Normalize(captureEvent(eventType))
		if err != nil {
			t.Errorf("%s: %v", eventType, err)
			continue
		}
		if ev.Outcome != want {
			t.Errorf("%s: outcome = %s, want %s", eventType, ev.Outcome, want)
		}
	}
}

func TestNormalizeFallsBackToCustomID(t *testing.T) {
	raw := []byte(`{
		"id": "WH-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {
			"id": "CAP-1",
			"custom_id": "booking-from-custom",
			"amount": {"value": "10.00", "currency_code": "USD"}
		}
	}`)
	ev, err := New().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.BookingID != "booking-from-custom" {
		t.Errorf("booking id = %q, want booking-from-custom", ev.BookingID)
	}
}

func TestNormalizeRejects(t *testing.T) {
	if _, err := New().Normalize([]byte(`{{`)); err == nil {
		t.Error("malformed json accepted")
	}
	if _, err := New().Normalize([]byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{}}`)); err == nil {
		t.Error("missing resource id accepted")
	}
	_, err := New().Normalize(captureEvent("CHECKOUT.ORDER.APPROVED"))
	if !errors.Is(err, payments.ErrUnhandled) {
		t.Errorf("foreign event type: got %v, want ErrUnhandled", err)
	}
	if _, err := New().Normalize([]byte(`{
		"id": "WH-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {"id": "CAP-1", "amount": {"value": "abc"}}
	}`)); err == nil {
		t.Error("bad amount accepted")
	}
}

func TestParseAmountDropsFraction(t *testing.T) {
	cases := map[string]int64{
		"1520.00": 1520,
		"1520.99": 1520, // HTG has no minor decimal places
		"1520":    1520,
		"":        0,
	}
	for in, want := range cases {
		got, err := parseAmount(in)
		if err != nil {
			t.Errorf("parseAmount(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseAmount(%q) = %d, want %d", in, got, want)
		}
	}
}

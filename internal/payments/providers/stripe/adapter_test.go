package stripe

import (
	"errors"
	"testing"

	"github.com/lakayhq/lakay-bookings/internal/payments"
)

func intentEvent(eventType string) []byte {
	return []byte(`{
		"id": "evt_1",
		"type": "` + eventType + `",
		"data": {
			"object": {
				"id": "pi_3MtwBw",
				"object": "payment_intent",
				"amount": 5000,
				"currency": "htg",
				"metadata": {"booking_id": "booking-42"}
			}
		}
	}`)
}

func TestNormalizePaymentIntentSucceeded(t *testing.T) {
	ev, err := New().Normalize(intentEvent("payment_intent.succeeded"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.ProviderTransactionID != "evt_1" {
		t.Errorf("tx id = %q", ev.ProviderTransactionID)
	}
	if ev.ProviderReference != "pi_3MtwBw" {
		t.Errorf("reference = %q", ev.ProviderReference)
	}
	if ev.BookingID != "booking-42" {
		t.Errorf("booking id = %q", ev.BookingID)
	}
	if ev.Amount != 5000 || ev.Currency != "HTG" {
		t.Errorf("amount = %d %s, want 5000 HTG", ev.Amount, ev.Currency)
	}
	if ev.Outcome != payments.OutcomeSucceeded {
		t.Errorf("outcome = %s", ev.Outcome)
	}
}

func TestNormalizeOutcomes(t *testing.T) {
	cases := map[string]payments.Outcome{
		"payment_intent.succeeded":      payments.OutcomeSucceeded,
		"payment_intent.payment_failed": payments.OutcomeFailed,
		"payment_intent.processing":     payments.OutcomePending,
	}
	for eventType, want := range cases {
		ev, err := New().Normalize(intentEvent(eventType))
		if err != nil {
			t.Errorf("%s: %v", eventType, err)
			continue
		}
		if ev.Outcome != want {
			t.Errorf("%s: outcome = %s, want %s", eventType, ev.Outcome, want)
		}
	}
}

func TestNormalizeChargeRefunded(t *testing.T) {
	raw := []byte(`{
		"id": "evt_2",
		"type": "charge.refunded",
		"data": {
			"object": {
				"id": "ch_3MtwBw",
				"object": "charge",
				"amount": 5000,
				"amount_refunded": 5000,
				"currency": "htg",
				"payment_intent": "pi_3MtwBw",
				"metadata": {"booking_id": "booking-42"}
			}
		}
	}`)
	ev, err := New().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.Outcome != payments.OutcomeRefunded {
		t.Errorf("outcome = %s, want refunded", ev.Outcome)
	}
	if ev.ProviderReference != "pi_3MtwBw" {
		t.Errorf("reference = %q, want the payment intent id", ev.ProviderReference)
	}
	if ev.Amount != 5000 {
		t.Errorf("amount = %d, want the refunded amount", ev.Amount)
	}
}

func TestNormalizeRejects(t *testing.T) {
	if _, err := New().Normalize([]byte(`][`)); err == nil {
		t.Error("malformed json accepted")
	}
	_, err := New().Normalize(intentEvent("customer.created"))
	if !errors.Is(err, payments.ErrUnhandled) {
		t.Errorf("foreign event type: got %v, want ErrUnhandled", err)
	}
}

func TestVerifySignatureSkippedWithoutSecret(t *testing.T) {
	if err := VerifySignature([]byte(`{}`), "", ""); err != nil {
		t.Errorf("empty secret should skip verification: %v", err)
	}
	if err := VerifySignature([]byte(`{}`), "t=1,v1=bad", "whsec_test"); err == nil {
		t.Error("bad signature accepted")
	}
}

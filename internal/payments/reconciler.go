package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/pkg/events"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
)

// TxStore is the set of guarded mutations the reconciler needs, all
// executed inside one transaction so a duplicate or stale event can never
// half-apply.
type TxStore interface {
	// RecordEvent stores the (provider, transaction id) idempotency key
	// and the raw payload; returns false when the event was seen before.
	RecordEvent(ctx context.Context, provider domain.PaymentProvider, txID string, raw []byte) (bool, error)
	// FindPayment looks up by provider reference first, then falls back
	// to (booking id, provider) for events that carry the reference for
	// the first time. Returns nil when nothing matches.
	FindPayment(ctx context.Context, provider domain.PaymentProvider, reference, bookingID string) (*domain.Payment, error)
	// CompletePayment marks the payment completed and stamps the
	// provider reference if it was unknown; guarded so an already
	// completed or refunded payment is left untouched.
	CompletePayment(ctx context.Context, paymentID, reference string, paidAt time.Time) (bool, error)
	// FailPayment marks the payment failed unless it already completed.
	FailPayment(ctx context.Context, paymentID string) (bool, error)
	// RefundPayment marks a completed payment refunded; returns false
	// when the payment never completed.
	RefundPayment(ctx context.Context, paymentID string) (bool, error)
	// CaptureBooking sets the booking's payment state to captured,
	// stamps paid_at, and promotes accepted bookings to confirmed.
	CaptureBooking(ctx context.Context, bookingID string, paidAt time.Time) error
	// SetBookingPaymentState updates only the booking's payment state.
	SetBookingPaymentState(ctx context.Context, bookingID string, state domain.PaymentState) error
}

// Store runs a reconciliation unit of work in one transaction.
type Store interface {
	InTx(ctx context.Context, fn func(tx TxStore) error) error
}

// Reconciler folds normalized provider events into payment and booking
// state. Providers deliver at least once and in no particular order, so
// every apply is idempotent and transition-guarded.
type Reconciler struct {
	store Store
	bus   events.Publisher
}

func NewReconciler(store Store, bus events.Publisher) *Reconciler {
	return &Reconciler{store: store, bus: bus}
}

// Apply folds one event into state. Reconciliation-level problems
// (unknown payment, refund before capture, duplicate delivery) are logged
// and absorbed: returning an error here would make the provider retry
// forever. Only storage failures propagate, so the webhook layer can
// re-queue the raw payload.
func (r *Reconciler) Apply(ctx context.Context, ev Event) error {
	var applied *appliedResult

	err := r.store.InTx(ctx, func(tx TxStore) error {
		first, err := tx.RecordEvent(ctx, ev.Provider, ev.ProviderTransactionID, ev.Raw)
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}
		if !first {
			return domain.ErrDuplicateEvent
		}

		p, err := tx.FindPayment(ctx, ev.Provider, ev.ProviderReference, ev.BookingID)
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}
		if p == nil {
			return domain.ErrPaymentNotFound
		}

		applied, err = r.applyOutcome(ctx, tx, p, ev)
		return err
	})

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicateEvent):
		logger.InfoContext(ctx, "duplicate payment event ignored",
			"provider", ev.Provider, "transaction_id", ev.ProviderTransactionID)
		return nil
	case errors.Is(err, domain.ErrPaymentNotFound):
		// Providers send webhooks for payments this system never
		// initiated (test traffic, other merchants' sandboxes).
		logger.WarnContext(ctx, "payment event dropped: no matching payment",
			"provider", ev.Provider, "reference", ev.ProviderReference, "booking_id", ev.BookingID)
		return nil
	case errors.Is(err, domain.ErrInvalidRefundState):
		logger.WarnContext(ctx, "refund event for payment that never completed",
			"provider", ev.Provider, "reference", ev.ProviderReference)
		return nil
	default:
		return err
	}

	if applied != nil {
		r.publish(ctx, applied)
	}
	return nil
}

type appliedResult struct {
	subject string
	payload events.PaymentEvent
}

func (r *Reconciler) applyOutcome(ctx context.Context, tx TxStore, p *domain.Payment, ev Event) (*appliedResult, error) {
	switch ev.Outcome {
	case OutcomeSucceeded:
		now := time.Now().UTC()
		changed, err := tx.CompletePayment(ctx, p.ID, ev.ProviderReference, now)
		if err != nil {
			return nil, fmt.Errorf("complete payment: %w", err)
		}
		if !changed {
			// Retry of a capture already on file.
			logger.InfoContext(ctx, "payment already completed, no-op",
				"payment_id", p.ID, "provider", p.Provider)
			return nil, nil
		}
		if err := tx.CaptureBooking(ctx, p.BookingID, now); err != nil {
			return nil, fmt.Errorf("capture booking: %w", err)
		}
		return &appliedResult{subject: events.PaymentCaptured, payload: events.PaymentEvent{
			PaymentID: p.ID, BookingID: p.BookingID, Provider: string(p.Provider),
			Amount: p.Amount, Currency: p.Currency, At: now,
		}}, nil

	case OutcomeFailed:
		changed, err := tx.FailPayment(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("fail payment: %w", err)
		}
		if !changed {
			return nil, nil
		}
		// A failed capture does not cancel the booking; the guest may
		// retry with the same or another provider.
		if err := tx.SetBookingPaymentState(ctx, p.BookingID, domain.PaymentStateFailed); err != nil {
			return nil, fmt.Errorf("set booking payment state: %w", err)
		}
		return &appliedResult{subject: events.PaymentFailed, payload: events.PaymentEvent{
			PaymentID: p.ID, BookingID: p.BookingID, Provider: string(p.Provider),
			Amount: p.Amount, Currency: p.Currency, At: time.Now().UTC(),
		}}, nil

	case OutcomeRefunded:
		changed, err := tx.RefundPayment(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("refund payment: %w", err)
		}
		if !changed {
			return nil, domain.ErrInvalidRefundState
		}
		if err := tx.SetBookingPaymentState(ctx, p.BookingID, domain.PaymentStateRefunded); err != nil {
			return nil, fmt.Errorf("set booking payment state: %w", err)
		}
		return &appliedResult{subject: events.PaymentRefunded, payload: events.PaymentEvent{
			PaymentID: p.ID, BookingID: p.BookingID, Provider: string(p.Provider),
			Amount: p.Amount, Currency: p.Currency, At: time.Now().UTC(),
		}}, nil

	case OutcomePending:
		// Informational; the attempt is already tracked as pending or
		// processing. Recording the event is enough.
		return nil, nil

	default:
		logger.WarnContext(ctx, "unknown payment outcome dropped", "outcome", string(ev.Outcome))
		return nil, nil
	}
}

func (r *Reconciler) publish(ctx context.Context, res *appliedResult) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(ctx, res.subject, res.payload); err != nil {
		logger.ErrorContext(ctx, "failed to publish payment event",
			"subject", res.subject, "payment_id", res.payload.PaymentID, "error", err)
	}
}

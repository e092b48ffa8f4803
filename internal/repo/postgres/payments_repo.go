package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/internal/payments"
)

type PaymentsRepo struct{ pool *pgxpool.Pool }

func NewPaymentsRepo(pool *pgxpool.Pool) *PaymentsRepo { return &PaymentsRepo{pool: pool} }

const paymentCols = `id, booking_id, provider, provider_reference, amount, currency, status, created_at, paid_at`

func (r *PaymentsRepo) CreatePayment(ctx context.Context, p *domain.Payment) error {
	const q = `INSERT INTO payments (id, booking_id, provider, provider_reference, amount, currency, status, created_at)
VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q,
		p.ID, p.BookingID, p.Provider, p.ProviderReference, p.Amount, p.Currency, p.Status, p.CreatedAt,
	)
	return err
}

func (r *PaymentsRepo) ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE booking_id=$1 ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ps := make([]domain.Payment, 0, 4)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, *p)
	}
	return ps, rows.Err()
}

// InTx runs one reconciliation unit of work in a single transaction;
// the commit makes the idempotency record and every state change land
// together or not at all.
func (r *PaymentsRepo) InTx(ctx context.Context, fn func(tx payments.TxStore) error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&paymentsTx{tx: tx})
	})
}

type paymentsTx struct{ tx pgx.Tx }

func (t *paymentsTx) RecordEvent(ctx context.Context, provider domain.PaymentProvider, txID string, raw []byte) (bool, error) {
	const q = `INSERT INTO webhook_events (provider, provider_tx_id, payload)
VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`
	ct, err := t.tx.Exec(ctx, q, provider, txID, raw)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (t *paymentsTx) FindPayment(ctx context.Context, provider domain.PaymentProvider, reference, bookingID string) (*domain.Payment, error) {
	if reference != "" {
		const q = `SELECT ` + paymentCols + ` FROM payments
WHERE provider=$1 AND provider_reference=$2 FOR UPDATE`
		p, err := scanPaymentRow(t.tx.QueryRow(ctx, q, provider, reference))
		if err != nil || p != nil {
			return p, err
		}
	}
	if bookingID == "" {
		return nil, nil
	}
	// First webhook for an attempt arrives before the reference is on
	// file; claim the newest open attempt for this booking and provider.
	const q = `SELECT ` + paymentCols + ` FROM payments
WHERE booking_id=$1 AND provider=$2 AND status = ANY($3)
ORDER BY created_at DESC LIMIT 1 FOR UPDATE`
	open := []string{string(domain.PaymentPending), string(domain.PaymentProcessing), string(domain.PaymentFailed)}
	return scanPaymentRow(t.tx.QueryRow(ctx, q, bookingID, provider, open))
}

func (t *paymentsTx) CompletePayment(ctx context.Context, paymentID, reference string, paidAt time.Time) (bool, error) {
	const q = `UPDATE payments
SET status=$1, provider_reference=COALESCE(provider_reference, NULLIF($2,'')), paid_at=$3
WHERE id=$4 AND status = ANY($5)`
	from := []string{string(domain.PaymentPending), string(domain.PaymentProcessing), string(domain.PaymentFailed)}
	ct, err := t.tx.Exec(ctx, q, domain.PaymentCompleted, reference, paidAt, paymentID, from)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (t *paymentsTx) FailPayment(ctx context.Context, paymentID string) (bool, error) {
	const q = `UPDATE payments SET status=$1 WHERE id=$2 AND status = ANY($3)`
	from := []string{string(domain.PaymentPending), string(domain.PaymentProcessing)}
	ct, err := t.tx.Exec(ctx, q, domain.PaymentFailed, paymentID, from)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (t *paymentsTx) RefundPayment(ctx context.Context, paymentID string) (bool, error) {
	const q = `UPDATE payments SET status=$1 WHERE id=$2 AND status=$3`
	ct, err := t.tx.Exec(ctx, q, domain.PaymentRefunded, paymentID, domain.PaymentCompleted)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (t *paymentsTx) CaptureBooking(ctx context.Context, bookingID string, paidAt time.Time) error {
	// Accepted bookings ride the capture straight to confirmed; instant
	// bookings are confirmed already and only pick up the payment state.
	const q = `UPDATE bookings
SET payment_state=$1, paid_at=$2,
    status = CASE WHEN status=$3 THEN $4 ELSE status END
WHERE id=$5`
	_, err := t.tx.Exec(ctx, q,
		domain.PaymentStateCaptured, paidAt,
		domain.BookingAccepted, domain.BookingConfirmed, bookingID,
	)
	return err
}

func (t *paymentsTx) SetBookingPaymentState(ctx context.Context, bookingID string, state domain.PaymentState) error {
	const q = `UPDATE bookings SET payment_state=$1 WHERE id=$2`
	_, err := t.tx.Exec(ctx, q, state, bookingID)
	return err
}

func scanPaymentRow(row pgx.Row) (*domain.Payment, error) {
	p, err := scanPayment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p   domain.Payment
		ref *string
	)
	err := row.Scan(&p.ID, &p.BookingID, &p.Provider, &ref, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.PaidAt)
	if err != nil {
		return nil, err
	}
	if ref != nil {
		p.ProviderReference = *ref
	}
	return &p, nil
}

var (
	_ payments.PaymentRepository = (*PaymentsRepo)(nil)
	_ payments.Store             = (*PaymentsRepo)(nil)
	_ payments.TxStore           = (*paymentsTx)(nil)
)

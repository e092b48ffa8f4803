package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

type BookingsRepo struct{ pool *pgxpool.Pool }

func NewBookingsRepo(pool *pgxpool.Pool) *BookingsRepo { return &BookingsRepo{pool: pool} }

const bookingCols = `id, listing_id, guest_id, host_id, check_in, check_out, guests,
nightly_total, cleaning_fee, service_fee, tax_amount, discount_amount, total_amount,
status, payment_state, refund_amount, currency, manage_token, created_at, cancelled_at, paid_at`

// Create inserts the booking. An overlap with another active booking on
// the same listing trips the exclusion constraint; that is the only place
// the date race is decided.
func (r *BookingsRepo) Create(ctx context.Context, b *domain.Booking) error {
	const q = `INSERT INTO bookings (
    id, listing_id, guest_id, host_id, check_in, check_out, guests,
    nightly_total, cleaning_fee, service_fee, tax_amount, discount_amount, total_amount,
    status, payment_state, refund_amount, currency, manage_token, created_at
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q,
		b.ID, b.ListingID, b.GuestID, b.HostID, b.Stay.CheckIn, b.Stay.CheckOut, b.Guests,
		b.Price.NightlyTotal, b.Price.CleaningFee, b.Price.ServiceFee, b.Price.TaxAmount,
		b.Price.DiscountAmount, b.Price.TotalAmount,
		b.Status, b.PaymentState, b.RefundAmount, b.Currency, b.ManageToken, b.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
		return domain.ErrDatesUnavailable
	}
	return err
}

func (r *BookingsRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q, id))
}

func (r *BookingsRepo) GetByIDWithToken(ctx context.Context, id, token string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1 AND manage_token=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q, id, token))
}

func (r *BookingsRepo) ListByGuest(ctx context.Context, guestID string, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE guest_id=$1`
	args := []interface{}{guestID}
	if status != nil {
		q += ` AND status=$2`
		args = append(args, *status)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows, limit)
}

func (r *BookingsRepo) ListActiveByListing(ctx context.Context, listingID string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
WHERE listing_id=$1 AND status = ANY($2) ORDER BY check_in`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, listingID, statusStrings(domain.ActiveStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows, 16)
}

func (r *BookingsRepo) UpdateStatus(ctx context.Context, id string, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	const q = `UPDATE bookings SET status=$1 WHERE id=$2 AND status = ANY($3)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, to, id, statusStrings(from))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Cancel flips the status and writes the refund in one statement so a
// concurrent transition can never leave a cancelled booking without its
// refund on record.
func (r *BookingsRepo) Cancel(ctx context.Context, id string, to domain.BookingStatus, refund int64, at time.Time) (bool, error) {
	const q = `UPDATE bookings SET status=$1, refund_amount=$2, cancelled_at=$3
WHERE id=$4 AND status = ANY($5)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, to, refund, at, id, statusStrings(domain.ActiveStatuses))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.ListingID, &b.GuestID, &b.HostID, &b.Stay.CheckIn, &b.Stay.CheckOut, &b.Guests,
		&b.Price.NightlyTotal, &b.Price.CleaningFee, &b.Price.ServiceFee, &b.Price.TaxAmount,
		&b.Price.DiscountAmount, &b.Price.TotalAmount,
		&b.Status, &b.PaymentState, &b.RefundAmount, &b.Currency, &b.ManageToken,
		&b.CreatedAt, &b.CancelledAt, &b.PaidAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows, sizeHint int) ([]domain.Booking, error) {
	bs := make([]domain.Booking, 0, sizeHint)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	return bs, rows.Err()
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

type ListingsRepo struct{ pool *pgxpool.Pool }

func NewListingsRepo(pool *pgxpool.Pool) *ListingsRepo { return &ListingsRepo{pool: pool} }

const listingCols = `id, host_id, min_stay, max_stay, max_guests, blocked_dates,
base_price_per_night, cleaning_fee, currency, cancellation_policy, instant_book`

func (r *ListingsRepo) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var l domain.Listing
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&l.ID, &l.HostID, &l.MinStay, &l.MaxStay, &l.MaxGuests, &l.BlockedDates,
		&l.BasePricePerNight, &l.CleaningFee, &l.Currency, &l.CancellationPolicy, &l.InstantBook,
	)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

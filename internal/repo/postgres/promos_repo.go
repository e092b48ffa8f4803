package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

type PromosRepo struct{ pool *pgxpool.Pool }

func NewPromosRepo(pool *pgxpool.Pool) *PromosRepo { return &PromosRepo{pool: pool} }

func (r *PromosRepo) FindPromo(ctx context.Context, code string) (*domain.PromoCode, error) {
	const q = `SELECT code, listing_id, amount, expires_at, max_uses, uses, active
FROM promo_codes WHERE code=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.PromoCode
	err := r.pool.QueryRow(ctx, q, code).Scan(
		&p.Code, &p.ListingID, &p.Amount, &p.ExpiresAt, &p.MaxUses, &p.Uses, &p.Active,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

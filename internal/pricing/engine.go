package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
)

// Platform rates. Service fee and tax use the same 10% of
// (nightly total + cleaning fee); the duplication comes straight from the
// billing rules and is kept as two separate line items.
const (
	serviceFeePercent = 10
	taxPercent        = 10
)

// PromoSource resolves a promo code to its definition, or nil when the
// code does not exist.
type PromoSource interface {
	FindPromo(ctx context.Context, code string) (*domain.PromoCode, error)
}

// Engine turns listing price rules into a deterministic quote.
type Engine struct {
	promos PromoSource
}

func NewEngine(promos PromoSource) *Engine {
	return &Engine{promos: promos}
}

// Quote computes the price breakdown for a stay. Every monetary line item
// is rounded half-up once at the HTG minor unit (whole gourdes); the total
// is a plain sum, never re-rounded.
func (e *Engine) Quote(ctx context.Context, listing *domain.Listing, stay domain.DateRange, guests int, promoCode string) (domain.PriceBreakdown, error) {
	if guests <= 0 {
		return domain.PriceBreakdown{}, fmt.Errorf("%w: got %d", domain.ErrGuestCountInvalid, guests)
	}
	if guests > listing.MaxGuests {
		return domain.PriceBreakdown{}, fmt.Errorf("%w: %d guests, listing allows %d", domain.ErrCapacityExceeded, guests, listing.MaxGuests)
	}

	nights := stay.Nights()
	if nights < listing.MinStay || (listing.MaxStay > 0 && nights > listing.MaxStay) {
		return domain.PriceBreakdown{}, fmt.Errorf("%w: %d nights, listing requires %d-%d", domain.ErrStayLengthInvalid, nights, listing.MinStay, listing.MaxStay)
	}

	breakdown := domain.PriceBreakdown{
		NightlyTotal: listing.BasePricePerNight * int64(nights),
		CleaningFee:  listing.CleaningFee,
	}
	feeBase := breakdown.NightlyTotal + breakdown.CleaningFee
	breakdown.ServiceFee = percentHalfUp(feeBase, serviceFeePercent)
	breakdown.TaxAmount = percentHalfUp(feeBase, taxPercent)

	if promoCode != "" {
		breakdown.DiscountAmount = e.resolveDiscount(ctx, listing.ID, promoCode)
	}

	total := breakdown.NightlyTotal + breakdown.CleaningFee + breakdown.ServiceFee + breakdown.TaxAmount - breakdown.DiscountAmount
	if total < 0 {
		total = 0
	}
	breakdown.TotalAmount = total

	return breakdown, nil
}

// resolveDiscount returns the discount for an applicable promo code, or 0.
// A bad code is not an error: the quote simply carries no discount.
func (e *Engine) resolveDiscount(ctx context.Context, listingID, code string) int64 {
	if e.promos == nil {
		return 0
	}
	promo, err := e.promos.FindPromo(ctx, code)
	if err != nil {
		logger.WarnContext(ctx, "promo lookup failed", "code", code, "error", err)
		return 0
	}
	if promo == nil || !promo.Usable(listingID, time.Now().UTC()) {
		return 0
	}
	return promo.Amount
}

// percentHalfUp computes pct% of v, rounded half-up to the minor unit.
func percentHalfUp(v int64, pct int64) int64 {
	return (v*pct + 50) / 100
}

// Package policy computes cancellation refunds from the platform's
// policy tier tables. Pure computation; persistence of the result is the
// booking service's job.
package policy

import (
	"time"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

// tier maps a minimum days-until-check-in threshold to a refund
// percentage. Tiers are evaluated top-down; the first satisfied
// threshold wins.
type tier struct {
	minDays int
	percent int
}

var tables = map[domain.CancellationPolicy][]tier{
	domain.PolicyFlexible: {{14, 100}, {7, 100}, {5, 100}, {1, 100}, {0, 0}},
	domain.PolicyModerate: {{14, 100}, {7, 100}, {5, 100}, {1, 50}, {0, 0}},
	domain.PolicyStrict:   {{14, 100}, {7, 50}, {5, 0}, {1, 0}, {0, 0}},
}

// defaultTable applies when a listing carries an unknown policy value.
var defaultTable = []tier{{14, 100}, {7, 50}, {5, 50}, {1, 50}, {0, 50}}

// RefundPercent returns the refundable percentage for the policy given
// the number of days until check-in.
func RefundPercent(p domain.CancellationPolicy, daysUntilCheckIn int) int {
	table, ok := tables[p]
	if !ok {
		table = defaultTable
	}
	for _, t := range table {
		if daysUntilCheckIn >= t.minDays && t.minDays > 0 {
			return t.percent
		}
	}
	// Fall through to the <1 day row.
	return table[len(table)-1].percent
}

// DaysUntilCheckIn is ceil((checkIn - now) / 1 day), clamped at zero.
func DaysUntilCheckIn(now, checkIn time.Time) int {
	diff := checkIn.Sub(now)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Refund computes the refund owed on cancellation. The service fee is
// never refunded, so the base is total minus service fee. Returns
// ErrBookingAlreadyStarted when now is on or after check-in, regardless
// of policy.
func Refund(p domain.CancellationPolicy, price domain.PriceBreakdown, now, checkIn time.Time) (amount int64, percent int, err error) {
	if !domain.DateOnly(now).Before(domain.DateOnly(checkIn)) {
		return 0, 0, domain.ErrBookingAlreadyStarted
	}

	percent = RefundPercent(p, DaysUntilCheckIn(now, checkIn))
	base := price.TotalAmount - price.ServiceFee
	if base < 0 {
		base = 0
	}
	// Round half-up at the HTG minor unit.
	amount = (base*int64(percent) + 50) / 100
	return amount, percent, nil
}

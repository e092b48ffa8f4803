package domain

import "time"

type CancellationPolicy string

const (
	PolicyFlexible CancellationPolicy = "flexible"
	PolicyModerate CancellationPolicy = "moderate"
	PolicyStrict   CancellationPolicy = "strict"
)

// Listing is the read-only constraint view this core needs. The listing
// management subsystem owns and mutates the full record.
type Listing struct {
	ID                 string             `json:"id"`
	HostID             string             `json:"host_id"`
	MinStay            int                `json:"min_stay"`
	MaxStay            int                `json:"max_stay"`
	MaxGuests          int                `json:"max_guests"`
	BlockedDates       []time.Time        `json:"blocked_dates"`
	BasePricePerNight  int64              `json:"base_price_per_night"`
	CleaningFee        int64              `json:"cleaning_fee"`
	Currency           string             `json:"currency"`
	CancellationPolicy CancellationPolicy `json:"cancellation_policy"`
	InstantBook        bool               `json:"instant_book"`
}

// IsBlocked reports whether the host excluded the given calendar date.
func (l *Listing) IsBlocked(day time.Time) bool {
	day = DateOnly(day)
	for _, blocked := range l.BlockedDates {
		if DateOnly(blocked).Equal(day) {
			return true
		}
	}
	return false
}

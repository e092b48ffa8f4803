package booking

import (
	"github.com/lakayhq/lakay-bookings/internal/domain"
)

// transitions is the single legal-edge table for booking statuses. Any
// edge not listed here fails with ErrIllegalTransition and must not
// mutate anything.
var transitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingPending: {
		domain.BookingAccepted,
		domain.BookingDeclined,
		domain.BookingCancelledByGuest,
		domain.BookingCancelledByHost,
	},
	domain.BookingAccepted: {
		domain.BookingConfirmed,
		domain.BookingCancelledByGuest,
		domain.BookingCancelledByHost,
	},
	domain.BookingConfirmed: {
		domain.BookingCompleted,
		domain.BookingCancelledByGuest,
		domain.BookingCancelledByHost,
	},
}

func CanTransition(from, to domain.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InitialStatus is decided once at creation and is not itself a
// transition: instant-book listings skip host approval entirely.
func InitialStatus(listing *domain.Listing) domain.BookingStatus {
	if listing.InstantBook {
		return domain.BookingConfirmed
	}
	return domain.BookingPending
}

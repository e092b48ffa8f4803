package domain

import "time"

type BookingStatus string

const (
	BookingPending          BookingStatus = "pending"
	BookingAccepted         BookingStatus = "accepted"
	BookingConfirmed        BookingStatus = "confirmed"
	BookingCancelledByGuest BookingStatus = "cancelled_by_guest"
	BookingCancelledByHost  BookingStatus = "cancelled_by_host"
	BookingDeclined         BookingStatus = "declined"
	BookingCompleted        BookingStatus = "completed"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingAccepted, BookingConfirmed,
		BookingCancelledByGuest, BookingCancelledByHost,
		BookingDeclined, BookingCompleted:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// ActiveStatuses are the booking statuses that occupy dates on a listing's
// calendar. Only bookings in these states can conflict with a new request.
var ActiveStatuses = []BookingStatus{BookingPending, BookingAccepted, BookingConfirmed}

func (s BookingStatus) IsActive() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsCancelled() bool {
	return s == BookingCancelledByGuest || s == BookingCancelledByHost
}

// PaymentState tracks how far the money side of a booking has progressed.
// It is distinct from the booking status itself: a failed capture leaves
// the booking alive so the guest can retry.
type PaymentState string

const (
	PaymentStatePending    PaymentState = "pending"
	PaymentStateAuthorized PaymentState = "authorized"
	PaymentStateCaptured   PaymentState = "captured"
	PaymentStateFailed     PaymentState = "failed"
	PaymentStateRefunded   PaymentState = "refunded"
)

// PriceBreakdown holds the quoted line items in HTG minor units (0 decimal
// places, so whole gourdes). Each line item is rounded once; the total is
// never re-rounded.
type PriceBreakdown struct {
	NightlyTotal   int64 `json:"nightly_total"`
	CleaningFee    int64 `json:"cleaning_fee"`
	ServiceFee     int64 `json:"service_fee"`
	TaxAmount      int64 `json:"tax_amount"`
	DiscountAmount int64 `json:"discount_amount"`
	TotalAmount    int64 `json:"total_amount"`
}

type Booking struct {
	ID            string         `json:"id"`
	ListingID     string         `json:"listing_id"`
	GuestID       string         `json:"guest_id"`
	HostID        string         `json:"host_id"`
	Stay          DateRange      `json:"-"`
	Guests        int            `json:"guests"`
	Price         PriceBreakdown `json:"price"`
	Status        BookingStatus  `json:"status"`
	PaymentState  PaymentState   `json:"payment_status"`
	RefundAmount  int64          `json:"refund_amount"`
	Currency      string         `json:"currency"`
	ManageToken   string         `json:"manage_token,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
}

// HasStarted reports whether the stay already began; cancellations on or
// after check-in are rejected outright.
func (b *Booking) HasStarted(now time.Time) bool {
	return !DateOnly(now).Before(b.Stay.CheckIn)
}

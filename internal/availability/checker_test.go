package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

type mockBookings struct {
	bookings []domain.Booking
	err      error
}

func (m *mockBookings) ListActiveByListing(context.Context, string) ([]domain.Booking, error) {
	return m.bookings, m.err
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, in, out time.Time) domain.DateRange {
	t.Helper()
	dr, err := domain.NewDateRange(in, out)
	if err != nil {
		t.Fatalf("NewDateRange: %v", err)
	}
	return dr
}

func activeBooking(t *testing.T, in, out time.Time) domain.Booking {
	t.Helper()
	return domain.Booking{Status: domain.BookingConfirmed, Stay: mustRange(t, in, out)}
}

func testListing() *domain.Listing {
	return &domain.Listing{ID: "l1", MinStay: 1, MaxStay: 0, MaxGuests: 4}
}

func TestCheck(t *testing.T) {
	existing := &mockBookings{bookings: []domain.Booking{
		activeBooking(t, date(2026, 4, 10), date(2026, 4, 15)),
	}}

	cases := []struct {
		name       string
		listing    *domain.Listing
		in, out    time.Time
		wantOK     bool
		wantReason string
	}{
		{"free dates", testListing(), date(2026, 4, 1), date(2026, 4, 5), true, ""},
		{"overlapping", testListing(), date(2026, 4, 12), date(2026, 4, 18), false, ReasonBooked},
		// Half-open: new check-in on the existing check-out day is fine.
		{"back to back after", testListing(), date(2026, 4, 15), date(2026, 4, 18), true, ""},
		{"back to back before", testListing(), date(2026, 4, 7), date(2026, 4, 10), true, ""},
		{"inverted", testListing(), date(2026, 4, 5), date(2026, 4, 5), false, ReasonInvalidRange},
		{
			"too short",
			&domain.Listing{ID: "l1", MinStay: 3},
			date(2026, 4, 1), date(2026, 4, 3),
			false, ReasonTooShort,
		},
		{
			"too long",
			&domain.Listing{ID: "l1", MinStay: 1, MaxStay: 5},
			date(2026, 4, 1), date(2026, 4, 8),
			false, ReasonTooLong,
		},
		{
			"blocked date inside stay",
			&domain.Listing{ID: "l1", MinStay: 1, BlockedDates: []time.Time{date(2026, 4, 3)}},
			date(2026, 4, 1), date(2026, 4, 5),
			false, ReasonBlocked,
		},
		{
			// Blocked date equal to check-out is outside the half-open stay.
			"blocked date on check-out day",
			&domain.Listing{ID: "l1", MinStay: 1, BlockedDates: []time.Time{date(2026, 4, 5)}},
			date(2026, 4, 1), date(2026, 4, 5),
			true, "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChecker(existing)
			stay := domain.DateRange{CheckIn: tc.in, CheckOut: tc.out}
			ok, reason, err := c.Check(context.Background(), tc.listing, stay)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if ok != tc.wantOK || reason != tc.wantReason {
				t.Errorf("Check = (%v, %q), want (%v, %q)", ok, reason, tc.wantOK, tc.wantReason)
			}
		})
	}
}

func TestCheckPropagatesStorageError(t *testing.T) {
	c := NewChecker(&mockBookings{err: errors.New("db down")})
	stay := mustRange(t, date(2026, 4, 1), date(2026, 4, 5))
	if _, _, err := c.Check(context.Background(), testListing(), stay); err == nil {
		t.Error("expected error from storage")
	}
}

func TestUnavailableDates(t *testing.T) {
	listing := testListing()
	listing.BlockedDates = []time.Time{date(2026, 4, 2), date(2026, 4, 20)}

	c := NewChecker(&mockBookings{bookings: []domain.Booking{
		activeBooking(t, date(2026, 4, 5), date(2026, 4, 8)),
	}})

	got, err := c.UnavailableDates(context.Background(), listing, date(2026, 4, 1), date(2026, 4, 10))
	if err != nil {
		t.Fatalf("UnavailableDates: %v", err)
	}

	want := []time.Time{date(2026, 4, 2), date(2026, 4, 5), date(2026, 4, 6), date(2026, 4, 7)}
	if len(got) != len(want) {
		t.Fatalf("got %d dates %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, checkIn, checkOut time.Time) DateRange {
	t.Helper()
	dr, err := NewDateRange(checkIn, checkOut)
	if err != nil {
		t.Fatalf("NewDateRange(%v, %v): %v", checkIn, checkOut, err)
	}
	return dr
}

func TestNewDateRangeRejectsInverted(t *testing.T) {
	if _, err := NewDateRange(date(2026, 3, 10), date(2026, 3, 10)); err != ErrInvalidDateRange {
		t.Errorf("same-day range: got %v, want ErrInvalidDateRange", err)
	}
	if _, err := NewDateRange(date(2026, 3, 10), date(2026, 3, 5)); err != ErrInvalidDateRange {
		t.Errorf("inverted range: got %v, want ErrInvalidDateRange", err)
	}
}

func TestNewDateRangeDropsTimeOfDay(t *testing.T) {
	in := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	out := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	dr := mustRange(t, in, out)
	if !dr.CheckIn.Equal(date(2026, 3, 10)) || !dr.CheckOut.Equal(date(2026, 3, 12)) {
		t.Errorf("got [%v, %v), want midnight dates", dr.CheckIn, dr.CheckOut)
	}
	if dr.Nights() != 2 {
		t.Errorf("Nights() = %d, want 2", dr.Nights())
	}
}

func TestOverlaps(t *testing.T) {
	base := mustRange(t, date(2026, 3, 10), date(2026, 3, 15))

	cases := []struct {
		name string
		in   time.Time
		out  time.Time
		want bool
	}{
		{"identical", date(2026, 3, 10), date(2026, 3, 15), true},
		{"contained", date(2026, 3, 11), date(2026, 3, 13), true},
		{"straddles start", date(2026, 3, 8), date(2026, 3, 11), true},
		{"straddles end", date(2026, 3, 14), date(2026, 3, 20), true},
		{"single shared night", date(2026, 3, 14), date(2026, 3, 15), true},
		// Back-to-back stays share a calendar date but no night.
		{"checkout equals checkin", date(2026, 3, 15), date(2026, 3, 18), false},
		{"checkin equals checkout", date(2026, 3, 5), date(2026, 3, 10), false},
		{"fully before", date(2026, 3, 1), date(2026, 3, 5), false},
		{"fully after", date(2026, 3, 20), date(2026, 3, 25), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			other := mustRange(t, tc.in, tc.out)
			if got := base.Overlaps(other); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
			// Symmetric by definition.
			if got := other.Overlaps(base); got != tc.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestContainsIsHalfOpen(t *testing.T) {
	dr := mustRange(t, date(2026, 3, 10), date(2026, 3, 12))
	if !dr.Contains(date(2026, 3, 10)) {
		t.Error("check-in date should be contained")
	}
	if !dr.Contains(date(2026, 3, 11)) {
		t.Error("middle night should be contained")
	}
	if dr.Contains(date(2026, 3, 12)) {
		t.Error("check-out date should not be contained")
	}
}

func TestDates(t *testing.T) {
	dr := mustRange(t, date(2026, 3, 10), date(2026, 3, 13))
	got := dr.Dates()
	if len(got) != 3 {
		t.Fatalf("Dates() returned %d entries, want 3", len(got))
	}
	for i, want := range []time.Time{date(2026, 3, 10), date(2026, 3, 11), date(2026, 3, 12)} {
		if !got[i].Equal(want) {
			t.Errorf("Dates()[%d] = %v, want %v", i, got[i], want)
		}
	}
}

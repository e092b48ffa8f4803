package domain

import (
	"errors"
	"time"
)

var ErrInvalidDateRange = errors.New("check_out must be after check_in")

// DateRange is a half-open stay interval [CheckIn, CheckOut): the guest
// occupies the night of CheckIn and leaves the morning of CheckOut, so
// back-to-back stays on the same listing never overlap.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: DateOnly(checkIn), CheckOut: DateOnly(checkOut)}
	if !dr.CheckIn.Before(dr.CheckOut) {
		return DateRange{}, ErrInvalidDateRange
	}
	return dr, nil
}

func (d DateRange) Nights() int {
	return int(d.CheckOut.Sub(d.CheckIn) / (24 * time.Hour))
}

// Overlaps reports whether two half-open intervals intersect. This is the
// single overlap predicate for both availability checks and calendar
// rendering; do not reimplement it elsewhere.
func (d DateRange) Overlaps(other DateRange) bool {
	return d.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(d.CheckOut)
}

// Contains reports whether the given calendar date falls inside the stay.
func (d DateRange) Contains(day time.Time) bool {
	day = DateOnly(day)
	return !day.Before(d.CheckIn) && day.Before(d.CheckOut)
}

// Dates returns every calendar date in [CheckIn, CheckOut).
func (d DateRange) Dates() []time.Time {
	var out []time.Time
	for day := d.CheckIn; day.Before(d.CheckOut); day = day.AddDate(0, 0, 1) {
		out = append(out, day)
	}
	return out
}

// DateOnly truncates a timestamp to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

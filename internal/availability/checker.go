package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

// Rejection reasons returned alongside ok=false.
const (
	ReasonInvalidRange = "check_out_not_after_check_in"
	ReasonTooShort     = "stay_shorter_than_min_stay"
	ReasonTooLong      = "stay_longer_than_max_stay"
	ReasonBlocked      = "date_blocked_by_host"
	ReasonBooked       = "dates_already_booked"
)

// BookingSource lists the bookings that currently occupy a listing's
// calendar (pending, accepted or confirmed).
type BookingSource interface {
	ListActiveByListing(ctx context.Context, listingID string) ([]domain.Booking, error)
}

// Checker answers "is this date range free" for a listing. It is a pure
// read; the database exclusion constraint is what makes the final insert
// race-proof.
type Checker struct {
	bookings BookingSource
}

func NewChecker(bookings BookingSource) *Checker {
	return &Checker{bookings: bookings}
}

func (c *Checker) Check(ctx context.Context, listing *domain.Listing, stay domain.DateRange) (bool, string, error) {
	if !stay.CheckIn.Before(stay.CheckOut) {
		return false, ReasonInvalidRange, nil
	}

	nights := stay.Nights()
	if listing.MinStay > 0 && nights < listing.MinStay {
		return false, ReasonTooShort, nil
	}
	if listing.MaxStay > 0 && nights > listing.MaxStay {
		return false, ReasonTooLong, nil
	}

	for _, blocked := range listing.BlockedDates {
		if stay.Contains(blocked) {
			return false, ReasonBlocked, nil
		}
	}

	active, err := c.bookings.ListActiveByListing(ctx, listing.ID)
	if err != nil {
		return false, "", fmt.Errorf("list active bookings: %w", err)
	}
	for _, b := range active {
		if stay.Overlaps(b.Stay) {
			return false, ReasonBooked, nil
		}
	}

	return true, "", nil
}

// UnavailableDates returns every calendar date in [from, to) that a guest
// cannot book: host-blocked dates plus nights held by active bookings.
// Uses the same overlap predicate as Check so the calendar and the checker
// can never disagree.
func (c *Checker) UnavailableDates(ctx context.Context, listing *domain.Listing, from, to time.Time) ([]time.Time, error) {
	window, err := domain.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}

	taken := make(map[time.Time]struct{})
	for _, blocked := range listing.BlockedDates {
		if window.Contains(blocked) {
			taken[domain.DateOnly(blocked)] = struct{}{}
		}
	}

	active, err := c.bookings.ListActiveByListing(ctx, listing.ID)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	for _, b := range active {
		if !window.Overlaps(b.Stay) {
			continue
		}
		for _, day := range b.Stay.Dates() {
			if window.Contains(day) {
				taken[day] = struct{}{}
			}
		}
	}

	var out []time.Time
	for day := window.CheckIn; day.Before(window.CheckOut); day = day.AddDate(0, 0, 1) {
		if _, ok := taken[day]; ok {
			out = append(out, day)
		}
	}
	return out, nil
}

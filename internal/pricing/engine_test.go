package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

type mockPromos struct {
	promos map[string]*domain.PromoCode
	err    error
}

func (m *mockPromos) FindPromo(_ context.Context, code string) (*domain.PromoCode, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.promos[code], nil
}

func testListing() *domain.Listing {
	return &domain.Listing{
		ID:                "listing-1",
		MinStay:           2,
		MaxStay:           30,
		MaxGuests:         4,
		BasePricePerNight: 100,
		CleaningFee:       25,
		Currency:          "HTG",
	}
}

func stay(t *testing.T, nights int) domain.DateRange {
	t.Helper()
	in := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	dr, err := domain.NewDateRange(in, in.AddDate(0, 0, nights))
	if err != nil {
		t.Fatalf("NewDateRange: %v", err)
	}
	return dr
}

func TestQuoteBreakdown(t *testing.T) {
	e := NewEngine(nil)

	got, err := e.Quote(context.Background(), testListing(), stay(t, 3), 2, "")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	want := domain.PriceBreakdown{
		NightlyTotal: 300,
		CleaningFee:  25,
		ServiceFee:   33, // 10% of 325, rounded half-up
		TaxAmount:    33,
		TotalAmount:  391,
	}
	if got != want {
		t.Errorf("Quote = %+v, want %+v", got, want)
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	e := NewEngine(nil)
	first, err := e.Quote(context.Background(), testListing(), stay(t, 5), 3, "")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := e.Quote(context.Background(), testListing(), stay(t, 5), 3, "")
		if err != nil {
			t.Fatalf("Quote: %v", err)
		}
		if again != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
}

func TestQuoteRoundsEachLineItemOnce(t *testing.T) {
	l := testListing()
	l.BasePricePerNight = 33
	l.CleaningFee = 0
	e := NewEngine(nil)

	got, err := e.Quote(context.Background(), l, stay(t, 3), 1, "")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	// feeBase 99: 9.9 rounds up to 10 per line, total is a plain sum.
	if got.ServiceFee != 10 || got.TaxAmount != 10 {
		t.Errorf("fees = %d/%d, want 10/10", got.ServiceFee, got.TaxAmount)
	}
	if got.TotalAmount != 99+10+10 {
		t.Errorf("total = %d, want 119", got.TotalAmount)
	}
}

func TestQuoteStayBounds(t *testing.T) {
	e := NewEngine(nil)

	if _, err := e.Quote(context.Background(), testListing(), stay(t, 1), 2, ""); !errors.Is(err, domain.ErrStayLengthInvalid) {
		t.Errorf("1 night: got %v, want ErrStayLengthInvalid", err)
	}
	if _, err := e.Quote(context.Background(), testListing(), stay(t, 31), 2, ""); !errors.Is(err, domain.ErrStayLengthInvalid) {
		t.Errorf("31 nights: got %v, want ErrStayLengthInvalid", err)
	}
	if _, err := e.Quote(context.Background(), testListing(), stay(t, 2), 2, ""); err != nil {
		t.Errorf("min stay boundary: %v", err)
	}
	if _, err := e.Quote(context.Background(), testListing(), stay(t, 30), 2, ""); err != nil {
		t.Errorf("max stay boundary: %v", err)
	}
}

func TestQuoteCapacity(t *testing.T) {
	e := NewEngine(nil)

	if _, err := e.Quote(context.Background(), testListing(), stay(t, 3), 5, ""); !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Errorf("5 guests: got %v, want ErrCapacityExceeded", err)
	}
	if _, err := e.Quote(context.Background(), testListing(), stay(t, 3), 0, ""); !errors.Is(err, domain.ErrGuestCountInvalid) {
		t.Errorf("0 guests: got %v, want ErrGuestCountInvalid", err)
	}
	if _, err := e.Quote(context.Background(), testListing(), stay(t, 3), -1, ""); !errors.Is(err, domain.ErrGuestCountInvalid) {
		t.Errorf("-1 guests: got %v, want ErrGuestCountInvalid", err)
	}
}

func TestQuotePromo(t *testing.T) {
	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	otherListing := "listing-other"
	promos := &mockPromos{promos: map[string]*domain.PromoCode{
		"WELCOME":  {Code: "WELCOME", Amount: 50, Active: true},
		"EXPIRED":  {Code: "EXPIRED", Amount: 50, Active: true, ExpiresAt: &expired},
		"OTHER":    {Code: "OTHER", Amount: 50, Active: true, ListingID: &otherListing},
		"BIG":      {Code: "BIG", Amount: 100000, Active: true},
		"INACTIVE": {Code: "INACTIVE", Amount: 50, Active: false},
	}}
	e := NewEngine(promos)
	ctx := context.Background()

	t.Run("applies discount", func(t *testing.T) {
		got, err := e.Quote(ctx, testListing(), stay(t, 3), 2, "WELCOME")
		if err != nil {
			t.Fatalf("Quote: %v", err)
		}
		if got.DiscountAmount != 50 || got.TotalAmount != 341 {
			t.Errorf("discount=%d total=%d, want 50/341", got.DiscountAmount, got.TotalAmount)
		}
	})

	for _, code := range []string{"EXPIRED", "OTHER", "INACTIVE", "NOPE"} {
		t.Run("ignores "+code, func(t *testing.T) {
			got, err := e.Quote(ctx, testListing(), stay(t, 3), 2, code)
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			if got.DiscountAmount != 0 || got.TotalAmount != 391 {
				t.Errorf("discount=%d total=%d, want 0/391", got.DiscountAmount, got.TotalAmount)
			}
		})
	}

	t.Run("total floors at zero", func(t *testing.T) {
		got, err := e.Quote(ctx, testListing(), stay(t, 3), 2, "BIG")
		if err != nil {
			t.Fatalf("Quote: %v", err)
		}
		if got.TotalAmount != 0 {
			t.Errorf("total = %d, want 0", got.TotalAmount)
		}
	})

	t.Run("lookup failure means no discount", func(t *testing.T) {
		broken := NewEngine(&mockPromos{err: errors.New("db down")})
		got, err := broken.Quote(ctx, testListing(), stay(t, 3), 2, "WELCOME")
		if err != nil {
			t.Fatalf("Quote: %v", err)
		}
		if got.DiscountAmount != 0 {
			t.Errorf("discount = %d, want 0", got.DiscountAmount)
		}
	})
}

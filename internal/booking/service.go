package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/lakayhq/lakay-bookings/internal/availability"
	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/internal/policy"
	"github.com/lakayhq/lakay-bookings/internal/pricing"
	"github.com/lakayhq/lakay-bookings/pkg/events"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
)

// ErrStorageUnavailable is returned when the persistence layer keeps
// failing after the one allowed retry; callers map it to a generic 503.
var ErrStorageUnavailable = errors.New("booking storage unavailable")

type ListingSource interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

type Repository interface {
	// Create inserts the booking relying on the storage layer's
	// no-overlap guarantee; an overlapping active booking surfaces as
	// domain.ErrDatesUnavailable.
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIDWithToken(ctx context.Context, id, token string) (*domain.Booking, error)
	ListByGuest(ctx context.Context, guestID string, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	ListActiveByListing(ctx context.Context, listingID string) ([]domain.Booking, error)
	// UpdateStatus flips status only when the current status matches
	// one of from; reports whether a row changed.
	UpdateStatus(ctx context.Context, id string, from []domain.BookingStatus, to domain.BookingStatus) (bool, error)
	// Cancel writes the cancelled status, refund amount and timestamp
	// as one atomic update guarded on the active statuses.
	Cancel(ctx context.Context, id string, to domain.BookingStatus, refund int64, at time.Time) (bool, error)
}

type Service struct {
	listings ListingSource
	bookings Repository
	checker  *availability.Checker
	pricing  *pricing.Engine
	bus      events.Publisher
}

func NewService(listings ListingSource, bookings Repository, checker *availability.Checker, pricingEngine *pricing.Engine, bus events.Publisher) *Service {
	return &Service{
		listings: listings,
		bookings: bookings,
		checker:  checker,
		pricing:  pricingEngine,
		bus:      bus,
	}
}

type CreateRequest struct {
	ListingID  string
	GuestID    string
	GuestEmail string
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	PromoCode  string
}

// Create quotes and persists a new booking. The availability check is
// advisory; the insert itself is the race-proof step, so two concurrent
// requests for overlapping dates resolve to exactly one winner.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Booking, bool, error) {
	stay, err := domain.NewDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, false, err
	}

	listing, err := s.listings.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, false, err
	}

	ok, reason, err := s.checker.Check(ctx, listing, stay)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, checkErr(reason)
	}

	price, err := s.pricing.Quote(ctx, listing, stay, req.Guests, req.PromoCode)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	b := &domain.Booking{
		ID:           uuid.NewString(),
		ListingID:    listing.ID,
		GuestID:      req.GuestID,
		HostID:       listing.HostID,
		Stay:         stay,
		Guests:       req.Guests,
		Price:        price,
		Status:       InitialStatus(listing),
		PaymentState: domain.PaymentStatePending,
		Currency:     listing.Currency,
		ManageToken:  uuid.NewString(),
		CreatedAt:    now,
	}

	if err := s.createWithRetry(ctx, b); err != nil {
		return nil, false, err
	}

	s.publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		CheckIn:   b.Stay.CheckIn,
		CheckOut:  b.Stay.CheckOut,
		Guests:    b.Guests,
		Total:     b.Price.TotalAmount,
		Currency:  b.Currency,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	})

	if req.GuestEmail != "" {
		s.publish(ctx, events.NotifySend, events.NotificationEvent{
			Type:      "booking_created",
			Recipient: req.GuestEmail,
			Subject:   "Your booking request",
			Data: map[string]interface{}{
				"booking_id": b.ID,
				"check_in":   b.Stay.CheckIn.Format(time.DateOnly),
				"check_out":  b.Stay.CheckOut.Format(time.DateOnly),
				"total":      b.Price.TotalAmount,
				"currency":   b.Currency,
				"status":     string(b.Status),
			},
		})
	}

	requiresPayment := b.Price.TotalAmount > 0
	return b, requiresPayment, nil
}

// createWithRetry retries the insert once with backoff on storage
// failures. Domain conflicts are never retried: losing the date race is a
// final answer.
func (s *Service) createWithRetry(ctx context.Context, b *domain.Booking) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.bookings.Create(ctx, b)
		if err == nil || errors.Is(err, domain.ErrDatesUnavailable) {
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil && !errors.Is(err, domain.ErrDatesUnavailable) {
		logger.ErrorContext(ctx, "booking insert failed after retry", "booking_id", b.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}

func checkErr(reason string) error {
	switch reason {
	case availability.ReasonInvalidRange:
		return domain.ErrInvalidDateRange
	case availability.ReasonTooShort, availability.ReasonTooLong:
		return domain.ErrStayLengthInvalid
	default:
		return domain.ErrDatesUnavailable
	}
}

type CancelParams struct {
	BookingID string
	ActorID   string // guest id for guest cancellations; empty skips the ownership check
	ByHost    bool
	Reason    string
}

// Cancel moves an active booking to the matching cancelled status,
// computing the refund through the policy tables. The refund write and
// the status flip are one atomic repository update.
func (s *Service) Cancel(ctx context.Context, p CancelParams) (*domain.Booking, int64, int, error) {
	b, err := s.bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return nil, 0, 0, err
	}
	if b == nil {
		return nil, 0, 0, domain.ErrBookingNotFound
	}
	if !p.ByHost && p.ActorID != "" && b.GuestID != p.ActorID {
		return nil, 0, 0, domain.ErrBookingNotFound
	}

	now := time.Now().UTC()
	listing, err := s.listings.GetListing(ctx, b.ListingID)
	if err != nil {
		return nil, 0, 0, err
	}

	var (
		refund int64
		pct    int
		to     domain.BookingStatus
	)
	if p.ByHost {
		// A host walking away from a stay owes the guest everything
		// except the non-refundable service fee.
		to = domain.BookingCancelledByHost
		base := b.Price.TotalAmount - b.Price.ServiceFee
		if base < 0 {
			base = 0
		}
		refund, pct = base, 100
	} else {
		to = domain.BookingCancelledByGuest
		refund, pct, err = policy.Refund(listing.CancellationPolicy, b.Price, now, b.Stay.CheckIn)
		if err != nil {
			return nil, 0, 0, err
		}
	}

	if !CanTransition(b.Status, to) {
		return nil, 0, 0, domain.ErrIllegalTransition
	}

	changed, err := s.bookings.Cancel(ctx, b.ID, to, refund, now)
	if err != nil {
		return nil, 0, 0, err
	}
	if !changed {
		// Another caller moved the booking first.
		return nil, 0, 0, domain.ErrIllegalTransition
	}

	b.Status = to
	b.RefundAmount = refund
	b.CancelledAt = &now

	cancelledBy := "guest"
	if p.ByHost {
		cancelledBy = "host"
	}
	s.publish(ctx, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:    b.ID,
		GuestID:      b.GuestID,
		HostID:       b.HostID,
		CancelledBy:  cancelledBy,
		Reason:       p.Reason,
		RefundAmount: refund,
		RefundPct:    pct,
		CancelledAt:  now,
	})

	return b, refund, pct, nil
}

// Accept moves a pending booking to accepted (host approval).
func (s *Service) Accept(ctx context.Context, id string) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingAccepted, events.BookingAccepted)
}

// Decline rejects a pending booking.
func (s *Service) Decline(ctx context.Context, id string) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingDeclined, events.BookingDeclined)
}

// Complete marks a confirmed booking as completed once checkout happened;
// triggered externally by the ops layer.
func (s *Service) Complete(ctx context.Context, id string) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingCompleted, events.BookingCompleted)
}

func (s *Service) transition(ctx context.Context, id string, to domain.BookingStatus, subject string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBookingNotFound
	}
	if !CanTransition(b.Status, to) {
		return nil, domain.ErrIllegalTransition
	}

	changed, err := s.bookings.UpdateStatus(ctx, id, []domain.BookingStatus{b.Status}, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrIllegalTransition
	}
	b.Status = to

	now := time.Now().UTC()
	s.publish(ctx, subject, events.BookingStatusEvent{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Status:    string(to),
		At:        now,
	})

	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) GetWithToken(ctx context.Context, id, token string) (*domain.Booking, error) {
	return s.bookings.GetByIDWithToken(ctx, id, token)
}

func (s *Service) ListByGuest(ctx context.Context, guestID string, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookings.ListByGuest(ctx, guestID, limit, offset, status)
}

// publish is fire-and-forget: the dispatcher is an external collaborator
// and must never block or fail a booking transition.
func (s *Service) publish(ctx context.Context, subject string, payload interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "failed to publish event", "subject", subject, "error", err)
	}
}

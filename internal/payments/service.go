package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lakayhq/lakay-bookings/internal/domain"
)

// ErrPaymentNotDue is returned when a payment intent is requested for a
// booking that owes nothing or is no longer active.
var ErrPaymentNotDue = errors.New("booking has no payment due")

type BookingSource interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *domain.Payment) error
	ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error)
}

// Service opens payment attempts against bookings. The attempt row is
// what later webhooks reconcile against; without it every provider event
// would be an orphan.
type Service struct {
	bookings BookingSource
	payments PaymentRepository
}

func NewService(bookings BookingSource, payments PaymentRepository) *Service {
	return &Service{bookings: bookings, payments: payments}
}

// CreateIntent records a pending payment attempt for the booking's full
// total. The guest may abandon an attempt and open another with a
// different provider; only a webhook ever completes one.
func (s *Service) CreateIntent(ctx context.Context, bookingID string, provider domain.PaymentProvider) (*domain.Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBookingNotFound
	}
	if !b.Status.IsActive() || b.Price.TotalAmount <= 0 || b.PaymentState == domain.PaymentStateCaptured {
		return nil, ErrPaymentNotDue
	}

	p := &domain.Payment{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		Provider:  provider,
		Amount:    b.Price.TotalAmount,
		Currency:  b.Currency,
		Status:    domain.PaymentPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.payments.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	return s.payments.ListByBooking(ctx, bookingID)
}

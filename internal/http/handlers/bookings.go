package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lakayhq/lakay-bookings/internal/booking"
	"github.com/lakayhq/lakay-bookings/internal/domain"
	authmw "github.com/lakayhq/lakay-bookings/internal/http/middleware"
	"github.com/lakayhq/lakay-bookings/internal/http/response"
	"github.com/lakayhq/lakay-bookings/internal/payments"
)

const dateLayout = "2006-01-02"

type BookingsHandler struct {
	bookings *booking.Service
	payments *payments.Service
}

func NewBookingsHandler(bookings *booking.Service, paymentsSvc *payments.Service) *BookingsHandler {
	return &BookingsHandler{bookings: bookings, payments: paymentsSvc}
}

func (h *BookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.RequireGuestSession)
		pr.Post("/", h.create)
		pr.Get("/", h.list)
	})

	r.Group(func(pr chi.Router) { // manage_token OR guest session
		pr.Use(authmw.OptionalGuestSession)
		pr.Get("/{id}", h.getByID)
		pr.Patch("/{id}", h.patch)
		pr.Post("/{id}/payments", h.createPayment)
	})

	// Host and ops transitions; upstream gateway enforces the caller's
	// role before these routes are reachable.
	r.Post("/{id}/accept", h.accept)
	r.Post("/{id}/decline", h.decline)
	r.Post("/{id}/complete", h.complete)

	return r
}

type createBookingRequest struct {
	ListingID string `json:"listing_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Guests    int    `json:"guests"`
	PromoCode string `json:"promo_code,omitempty"`
}

type bookingDTO struct {
	ID           string                `json:"id"`
	ListingID    string                `json:"listing_id"`
	GuestID      string                `json:"guest_id"`
	CheckIn      string                `json:"check_in"`
	CheckOut     string                `json:"check_out"`
	Guests       int                   `json:"guests"`
	Price        domain.PriceBreakdown `json:"price"`
	Status       string                `json:"status"`
	PaymentState string                `json:"payment_status"`
	RefundAmount int64                 `json:"refund_amount,omitempty"`
	Currency     string                `json:"currency"`
	ManageToken  string                `json:"manage_token,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	CancelledAt  *time.Time            `json:"cancelled_at,omitempty"`
	PaidAt       *time.Time            `json:"paid_at,omitempty"`
}

func toDTO(b *domain.Booking, includeToken bool) bookingDTO {
	dto := bookingDTO{
		ID:           b.ID,
		ListingID:    b.ListingID,
		GuestID:      b.GuestID,
		CheckIn:      b.Stay.CheckIn.Format(dateLayout),
		CheckOut:     b.Stay.CheckOut.Format(dateLayout),
		Guests:       b.Guests,
		Price:        b.Price,
		Status:       string(b.Status),
		PaymentState: string(b.PaymentState),
		RefundAmount: b.RefundAmount,
		Currency:     b.Currency,
		CreatedAt:    b.CreatedAt,
		CancelledAt:  b.CancelledAt,
		PaidAt:       b.PaidAt,
	}
	if includeToken {
		dto.ManageToken = b.ManageToken
	}
	return dto
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := authmw.Claims(r)

	var in createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.ListingID == "" {
		response.BadRequest(w, "listing_id is required")
		return
	}
	checkIn, err := time.Parse(dateLayout, in.CheckIn)
	if err != nil {
		response.BadRequest(w, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, in.CheckOut)
	if err != nil {
		response.BadRequest(w, "check_out must be YYYY-MM-DD")
		return
	}
	if in.Guests < 1 {
		response.BadRequest(w, "guests must be at least 1")
		return
	}

	b, requiresPayment, err := h.bookings.Create(r.Context(), booking.CreateRequest{
		ListingID:  in.ListingID,
		GuestID:    claims.GuestID,
		GuestEmail: claims.Email,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     in.Guests,
		PromoCode:  in.PromoCode,
	})
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	out := struct {
		bookingDTO
		RequiresPayment bool `json:"requires_payment"`
	}{toDTO(b, true), requiresPayment}
	response.WriteJSON(w, http.StatusCreated, out)
}

func (h *BookingsHandler) list(w http.ResponseWriter, r *http.Request) {
	claims := authmw.Claims(r)

	limit, offset := 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	var statusPtr *domain.BookingStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseBookingStatus(raw)
		if !ok {
			response.BadRequest(w, "invalid status")
			return
		}
		statusPtr = &st
	}

	bs, err := h.bookings.ListByGuest(r.Context(), claims.GuestID, limit, offset, statusPtr)
	if err != nil {
		response.InternalError(w, "db error")
		return
	}

	out := make([]bookingDTO, 0, len(bs))
	for i := range bs {
		out = append(out, toDTO(&bs[i], false))
	}
	response.WriteJSON(w, http.StatusOK, out)
}

// resolve loads a booking the caller may manage: either the manage token
// matches, or the session guest owns it.
func (h *BookingsHandler) resolve(w http.ResponseWriter, r *http.Request) *domain.Booking {
	id := chi.URLParam(r, "id")

	if tok := r.URL.Query().Get("manage_token"); tok != "" {
		b, err := h.bookings.GetWithToken(r.Context(), id, tok)
		if err != nil {
			response.InternalError(w, "db error")
			return nil
		}
		if b == nil {
			response.NotFound(w, "booking not found")
			return nil
		}
		return b
	}

	claims := authmw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "session or manage_token required")
		return nil
	}
	b, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		response.InternalError(w, "db error")
		return nil
	}
	if b == nil || b.GuestID != claims.GuestID {
		response.NotFound(w, "booking not found")
		return nil
	}
	return b
}

func (h *BookingsHandler) getByID(w http.ResponseWriter, r *http.Request) {
	b := h.resolve(w, r)
	if b == nil {
		return
	}
	response.WriteJSON(w, http.StatusOK, toDTO(b, false))
}

type patchBookingRequest struct {
	Action string `json:"action,omitempty"`
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// patch handles guest- and host-initiated cancellation. Two body shapes
// are accepted: `{"action": "cancel"}`, where the caller's role decides
// who is cancelling, and the explicit `{"status": "cancelled_by_..."}`
// form used by the gateway. Other status changes go through the
// dedicated transition routes.
func (h *BookingsHandler) patch(w http.ResponseWriter, r *http.Request) {
	b := h.resolve(w, r)
	if b == nil {
		return
	}

	var in patchBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	claims := authmw.Claims(r)
	var byHost bool
	switch {
	case in.Action == "cancel":
		byHost = claims != nil && claims.Role == "host"
	case in.Action != "":
		response.BadRequest(w, "action must be cancel")
		return
	default:
		to, ok := domain.ParseBookingStatus(in.Status)
		if !ok || !to.IsCancelled() {
			response.BadRequest(w, "action must be cancel, or status cancelled_by_guest or cancelled_by_host")
			return
		}
		byHost = to == domain.BookingCancelledByHost
	}

	params := booking.CancelParams{
		BookingID: b.ID,
		ByHost:    byHost,
		Reason:    in.Reason,
	}
	if claims != nil && !params.ByHost {
		params.ActorID = claims.GuestID
	}

	cancelled, refund, pct, err := h.bookings.Cancel(r.Context(), params)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	out := struct {
		bookingDTO
		RefundAmount     int64 `json:"refund_amount"`
		RefundPercentage int   `json:"refund_percentage"`
	}{toDTO(cancelled, false), refund, pct}
	response.WriteJSON(w, http.StatusOK, out)
}

type createPaymentRequest struct {
	Provider string `json:"provider"`
}

func (h *BookingsHandler) createPayment(w http.ResponseWriter, r *http.Request) {
	b := h.resolve(w, r)
	if b == nil {
		return
	}

	var in createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	provider, ok := domain.ParsePaymentProvider(in.Provider)
	if !ok {
		response.BadRequest(w, "provider must be moncash, paypal or stripe")
		return
	}

	p, err := h.payments.CreateIntent(r.Context(), b.ID, provider)
	if err != nil {
		if err == payments.ErrPaymentNotDue {
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeIllegalTransition)
			return
		}
		response.WriteDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, p)
}

func (h *BookingsHandler) accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Accept)
}

func (h *BookingsHandler) decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Decline)
}

func (h *BookingsHandler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Complete)
}

func (h *BookingsHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (*domain.Booking, error)) {
	b, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, toDTO(b, false))
}

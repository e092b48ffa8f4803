package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lakayhq/lakay-bookings/internal/availability"
	"github.com/lakayhq/lakay-bookings/internal/booking"
	"github.com/lakayhq/lakay-bookings/internal/http/response"
)

type CalendarHandler struct {
	listings booking.ListingSource
	checker  *availability.Checker
}

func NewCalendarHandler(listings booking.ListingSource, checker *availability.Checker) *CalendarHandler {
	return &CalendarHandler{listings: listings, checker: checker}
}

func (h *CalendarHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}/calendar", h.calendar)
	return r
}

// calendar returns the dates in [from, to) a guest cannot book. Defaults
// to the next 90 days. Only unavailable dates are listed to keep the
// payload small for mostly-open calendars.
func (h *CalendarHandler) calendar(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	from := time.Now().UTC()
	to := from.AddDate(0, 0, 90)
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse(dateLayout, v)
		if err != nil {
			response.BadRequest(w, "from must be YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse(dateLayout, v)
		if err != nil {
			response.BadRequest(w, "to must be YYYY-MM-DD")
			return
		}
	}

	days, err := h.checker.UnavailableDates(r.Context(), listing, from, to)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	out := struct {
		ListingID   string   `json:"listing_id"`
		From        string   `json:"from"`
		To          string   `json:"to"`
		Unavailable []string `json:"unavailable"`
	}{
		ListingID:   listing.ID,
		From:        from.Format(dateLayout),
		To:          to.Format(dateLayout),
		Unavailable: make([]string, 0, len(days)),
	}
	for _, d := range days {
		out.Unavailable = append(out.Unavailable, d.Format(dateLayout))
	}
	response.WriteJSON(w, http.StatusOK, out)
}

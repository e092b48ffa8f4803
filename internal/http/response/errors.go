package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lakayhq/lakay-bookings/internal/booking"
	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
)

// ErrorResponse is the structured JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Machine-readable error codes.
const (
	CodeInvalidInput          = "INVALID_INPUT"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeNotFound              = "NOT_FOUND"
	CodeDatesUnavailable      = "DATES_UNAVAILABLE"
	CodeStayLengthInvalid     = "STAY_LENGTH_INVALID"
	CodeCapacityExceeded      = "CAPACITY_EXCEEDED"
	CodeIllegalTransition     = "ILLEGAL_TRANSITION"
	CodeBookingAlreadyStarted = "BOOKING_ALREADY_STARTED"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	CodeInternalError         = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

// WriteDomainError maps a domain error to its HTTP status and code.
// Validation and conflict errors are all 400s with a machine-readable
// code; the caller distinguishes them by code, not status. Errors with no
// mapping are logged and reported as a generic 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDateRange), errors.Is(err, domain.ErrGuestCountInvalid):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	case errors.Is(err, domain.ErrDatesUnavailable):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeDatesUnavailable)
	case errors.Is(err, domain.ErrStayLengthInvalid):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeStayLengthInvalid)
	case errors.Is(err, domain.ErrCapacityExceeded):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeCapacityExceeded)
	case errors.Is(err, domain.ErrIllegalTransition):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeIllegalTransition)
	case errors.Is(err, domain.ErrBookingAlreadyStarted):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeBookingAlreadyStarted)
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrListingNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, booking.ErrStorageUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable", CodeServiceUnavailable)
	default:
		logger.Error("unmapped error in handler", "error", err)
		InternalError(w, "internal error")
	}
}

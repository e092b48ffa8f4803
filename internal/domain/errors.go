package domain

import "errors"

// Validation and conflict errors surfaced synchronously to API callers.
var (
	ErrDatesUnavailable      = errors.New("requested dates are unavailable")
	ErrStayLengthInvalid     = errors.New("stay length outside listing bounds")
	ErrCapacityExceeded      = errors.New("guest count exceeds listing capacity")
	ErrGuestCountInvalid     = errors.New("guest count must be positive")
	ErrIllegalTransition     = errors.New("illegal booking state transition")
	ErrBookingAlreadyStarted = errors.New("booking already started")
)

// Reconciliation errors: logged and absorbed, never surfaced to providers.
var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrInvalidRefundState = errors.New("refund requires a completed payment")
	ErrDuplicateEvent     = errors.New("payment event already applied")
)

// Lookup errors.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrListingNotFound = errors.New("listing not found")
)

package api

import (
	"errors"
	"net/http"

	"wrenchbid/internal/database"
	"wrenchbid/internal/service"
)

// Reason codes carried in error responses so clients can react to a
// rejection without parsing the human-readable message.
const (
	reasonForbidden         = "forbidden"
	reasonNotFound          = "not_found"
	reasonInvalidParameters = "invalid_parameters"
	reasonInvalidState      = "invalid_state"
	reasonAlreadyResolved   = "already_resolved"
	reasonDuplicateBid      = "duplicate_bid"
	reasonConflict          = "conflict"
	reasonCapacityExceeded  = "capacity_exceeded"
	reasonDeadlinePassed    = "deadline_passed"
	reasonRfqNotOpen        = "rfq_not_open"
	reasonNotEligible       = "not_eligible"
	reasonRateLimited       = "rate_limited"
	reasonInternal          = "internal_error"
)

// mapError translates service and storage sentinels into an HTTP
// status and a stable reason code. Anything unrecognized is a 500.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, reasonForbidden
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, reasonNotFound
	case errors.Is(err, service.ErrInvalidParameters):
		return http.StatusBadRequest, reasonInvalidParameters
	case errors.Is(err, database.ErrInvalidState):
		return http.StatusBadRequest, reasonInvalidState
	case errors.Is(err, database.ErrAlreadyResolved):
		return http.StatusConflict, reasonAlreadyResolved
	case errors.Is(err, database.ErrDuplicateBid):
		return http.StatusConflict, reasonDuplicateBid
	case errors.Is(err, database.ErrConcurrentModification):
		return http.StatusConflict, reasonConflict
	case errors.Is(err, database.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity, reasonCapacityExceeded
	case errors.Is(err, database.ErrRfqNotOpen):
		return http.StatusUnprocessableEntity, reasonRfqNotOpen
	case errors.Is(err, database.ErrDeadlinePassed), errors.Is(err, service.ErrBiddingClosed):
		return http.StatusUnprocessableEntity, reasonDeadlinePassed
	case errors.Is(err, service.ErrNotEligible):
		return http.StatusUnprocessableEntity, reasonNotEligible
	}
	return http.StatusInternalServerError, reasonInternal
}

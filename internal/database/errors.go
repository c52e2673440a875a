package database

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// State-gate failures are expected outcomes, surfaced as sentinels so
// callers can tell a caller-facing reason apart from an outage.
var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRfqNotOpen is returned when an RFQ already left the open state.
	ErrRfqNotOpen = errors.New("rfq is not open for bidding")

	// ErrDeadlinePassed is returned when the bid deadline has elapsed.
	ErrDeadlinePassed = errors.New("bid deadline has passed")

	// ErrCapacityExceeded is returned when bid_count reached max_bids.
	ErrCapacityExceeded = errors.New("maximum number of bids reached")

	// ErrDuplicateBid is returned when the workshop already holds a
	// live bid on the RFQ.
	ErrDuplicateBid = errors.New("workshop already submitted a bid")

	// ErrDuplicateReferral flags an obligation already recorded for
	// the RFQ. Callers treat it as success on retry.
	ErrDuplicateReferral = errors.New("referral obligation already recorded")

	// ErrAlreadyResolved is returned when a second resolution attempt
	// hits a terminal RFQ.
	ErrAlreadyResolved = errors.New("rfq is already resolved")

	// ErrInvalidState is returned when a resolution target does not
	// match the RFQ or is no longer pending.
	ErrInvalidState = errors.New("bid is not in a resolvable state")

	// ErrConcurrentModification is returned when a conditional update
	// lost a race with another writer.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// isUniqueViolation reports whether err is the partial unique index on
// (rfq_id, workshop_id) firing under a duplicate-submission race.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint &&
			(serr.ExtendedCode == sqlite3.ErrConstraintUnique || serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}

package service

import "errors"

var (
	// ErrForbidden means the caller holds no quoting role at the
	// workshop, or is not the RFQ owner for owner-only operations.
	ErrForbidden = errors.New("caller is not allowed to perform this action")

	// ErrNotEligible means the workshop fails the RFQ's eligibility
	// requirements (rating floor, certifications, inactive profile).
	ErrNotEligible = errors.New("workshop does not meet rfq requirements")

	// ErrInvalidParameters flags a malformed RFQ or bid payload. The
	// wrapped message names the offending field.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrBiddingClosed is returned by read paths when an RFQ's
	// deadline already passed even though the sweeper has not
	// flipped its status yet.
	ErrBiddingClosed = errors.New("bidding window is closed")
)

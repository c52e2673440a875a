package models

import "time"

// Urgency levels an RFQ can carry.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

const (
	// DefaultMaxBids caps competition when the mechanic does not
	// choose a value.
	DefaultMaxBids = 5

	// MaxMaxBids is the hard ceiling for max_bids.
	MaxMaxBids = 20

	// MinBidWindow is the shortest allowed distance between opening
	// an RFQ and its bid deadline.
	MinBidWindow = time.Hour

	// MaxBidWindow is the longest allowed bid window.
	MaxBidWindow = 14 * 24 * time.Hour

	// DefaultReferralFeePercent is the mechanic's referral share of
	// the accepted quote.
	DefaultReferralFeePercent = 5.0

	// MaxQuoteAmount bounds every monetary field on a bid.
	MaxQuoteAmount = 999999.99

	// Proposal description bounds.
	MinBidDescriptionLen = 50
	MaxBidDescriptionLen = 5000

	// MaxWarrantyMonths caps both parts and labor warranty terms.
	MaxWarrantyMonths = 120

	// MaxCompletionDays caps the estimated repair duration.
	MaxCompletionDays = 365

	// MaxLaborHours caps the labor estimate.
	MaxLaborHours = 999.99

	// BreakdownTolerance is how far an itemized parts/labor/fees
	// subtotal may drift from quote_amount (tax aside) before the
	// bid is rejected as internally inconsistent.
	BreakdownTolerance = 0.20
)

// Pagination defaults for bid and marketplace listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// NotificationQueueSize is the in-memory fallback queue capacity of
// the dispatcher.
const NotificationQueueSize = 1000

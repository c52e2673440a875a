package models

import (
	"time"
)

// RfqStatus is the lifecycle state of a request for quote.
type RfqStatus string

const (
	RfqStatusOpen      RfqStatus = "open"
	RfqStatusAccepted  RfqStatus = "accepted"
	RfqStatusExpired   RfqStatus = "expired"
	RfqStatusCancelled RfqStatus = "cancelled"
)

// rfqTransitions is the single allowed-transition table for RFQs.
// Accepted, expired and cancelled are terminal.
var rfqTransitions = map[RfqStatus][]RfqStatus{
	RfqStatusOpen: {RfqStatusAccepted, RfqStatusExpired, RfqStatusCancelled},
}

// Valid reports whether s is a known RFQ status.
func (s RfqStatus) Valid() bool {
	switch s {
	case RfqStatusOpen, RfqStatusAccepted, RfqStatusExpired, RfqStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s RfqStatus) Terminal() bool {
	return len(rfqTransitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether s -> to is in the allowed table.
func (s RfqStatus) CanTransition(to RfqStatus) bool {
	for _, allowed := range rfqTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Rfq is a customer repair request broadcast to workshops for
// competitive bidding. Location is stored city/province only; the full
// address is withheld until a bid is accepted.
type Rfq struct {
	ID            string `db:"id" json:"id"`
	Title         string `db:"title" json:"title"`
	Description   string `db:"description" json:"description"`
	IssueCategory string `db:"issue_category" json:"issue_category"`
	Urgency       string `db:"urgency" json:"urgency"`

	VehicleMake    string `db:"vehicle_make" json:"vehicle_make"`
	VehicleModel   string `db:"vehicle_model" json:"vehicle_model"`
	VehicleYear    int    `db:"vehicle_year" json:"vehicle_year"`
	VehicleMileage int64  `db:"vehicle_mileage" json:"vehicle_mileage,omitempty"`

	CustomerCity     string `db:"customer_city" json:"customer_city"`
	CustomerProvince string `db:"customer_province" json:"customer_province"`
	CustomerID       string `db:"customer_id" json:"customer_id"`
	MechanicID       string `db:"mechanic_id" json:"mechanic_id"`

	BudgetMin *float64 `db:"budget_min" json:"budget_min,omitempty"`
	BudgetMax *float64 `db:"budget_max" json:"budget_max,omitempty"`

	MaxBids                int       `db:"max_bids" json:"max_bids"`
	BidDeadline            time.Time `db:"bid_deadline" json:"bid_deadline"`
	MinWorkshopRating      *float64  `db:"min_workshop_rating" json:"min_workshop_rating,omitempty"`
	RequiredCertifications StringSet `db:"required_certifications" json:"required_certifications,omitempty"`

	BidCount      int       `db:"bid_count" json:"bid_count"`
	Status        RfqStatus `db:"status" json:"status"`
	AcceptedBidID *string   `db:"accepted_bid_id" json:"accepted_bid_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Expired reports whether the bid deadline has passed at the given
// instant. It does not look at status; callers combine both.
func (r *Rfq) Expired(now time.Time) bool {
	return !now.Before(r.BidDeadline)
}

// BiddingClosed reports whether the RFQ can no longer take bids,
// either because it left the open state or the deadline passed.
func (r *Rfq) BiddingClosed(now time.Time) bool {
	return r.Status != RfqStatusOpen || r.Expired(now)
}

// CapacityReached reports whether the bid counter hit max_bids.
func (r *Rfq) CapacityReached() bool {
	return r.BidCount >= r.MaxBids
}

// RemainingBidWindow returns how long bidding stays open, zero when
// the deadline already passed.
func (r *Rfq) RemainingBidWindow(now time.Time) time.Duration {
	if r.Expired(now) {
		return 0
	}
	return r.BidDeadline.Sub(now)
}

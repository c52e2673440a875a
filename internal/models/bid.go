package models

import (
	"time"
)

// BidStatus is the lifecycle state of a workshop bid.
type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

var bidTransitions = map[BidStatus][]BidStatus{
	BidStatusPending: {BidStatusAccepted, BidStatusRejected},
}

// Valid reports whether s is a known bid status.
func (s BidStatus) Valid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s BidStatus) Terminal() bool {
	return len(bidTransitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether s -> to is in the allowed table.
func (s BidStatus) CanTransition(to BidStatus) bool {
	for _, allowed := range bidTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Bid is a workshop's priced proposal against one RFQ. The workshop_*
// fields are a reputation snapshot taken at submission time; a later
// profile change must not rewrite bidding history, so they are kept
// denormalized here.
type Bid struct {
	ID         string `db:"id" json:"id"`
	RfqID      string `db:"rfq_id" json:"rfq_id"`
	WorkshopID string `db:"workshop_id" json:"workshop_id"`

	// Snapshot of the workshop profile at submission time.
	WorkshopName           string    `db:"workshop_name" json:"workshop_name"`
	WorkshopCity           string    `db:"workshop_city" json:"workshop_city"`
	WorkshopRating         float64   `db:"workshop_rating" json:"workshop_rating"`
	WorkshopReviewCount    int       `db:"workshop_review_count" json:"workshop_review_count"`
	WorkshopCertifications StringSet `db:"workshop_certifications" json:"workshop_certifications,omitempty"`

	QuoteAmount      float64 `db:"quote_amount" json:"quote_amount"`
	PartsCost        float64 `db:"parts_cost" json:"parts_cost"`
	LaborCost        float64 `db:"labor_cost" json:"labor_cost"`
	ShopSuppliesFee  float64 `db:"shop_supplies_fee" json:"shop_supplies_fee"`
	EnvironmentalFee float64 `db:"environmental_fee" json:"environmental_fee"`
	TaxAmount        float64 `db:"tax_amount" json:"tax_amount"`

	EstimatedCompletionDays int     `db:"estimated_completion_days" json:"estimated_completion_days"`
	EstimatedLaborHours     float64 `db:"estimated_labor_hours" json:"estimated_labor_hours"`

	PartsWarrantyMonths int    `db:"parts_warranty_months" json:"parts_warranty_months"`
	LaborWarrantyMonths int    `db:"labor_warranty_months" json:"labor_warranty_months"`
	WarrantyInfo        string `db:"warranty_info" json:"warranty_info,omitempty"`

	Description        string `db:"description" json:"description"`
	PartsNeeded        string `db:"parts_needed" json:"parts_needed,omitempty"`
	RepairPlan         string `db:"repair_plan" json:"repair_plan,omitempty"`
	AlternativeOptions string `db:"alternative_options" json:"alternative_options,omitempty"`

	EarliestAvailability *time.Time `db:"earliest_availability" json:"earliest_availability,omitempty"`
	CanProvideLoaner     bool       `db:"can_provide_loaner" json:"can_provide_loaner"`
	CanProvidePickup     bool       `db:"can_provide_pickup" json:"can_provide_pickup"`
	AfterHoursService    bool       `db:"after_hours_service" json:"after_hours_service"`

	SubmittedByUserID string `db:"submitted_by_user_id" json:"submitted_by_user_id"`
	SubmittedByRole   string `db:"submitted_by_role" json:"submitted_by_role"`

	Status     BidStatus  `db:"status" json:"status"`
	AcceptedAt *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	RejectedAt *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// BidPayload carries the caller-supplied portion of a bid submission,
// before the workshop snapshot and identifiers are attached.
type BidPayload struct {
	QuoteAmount      float64 `json:"quote_amount"`
	PartsCost        float64 `json:"parts_cost"`
	LaborCost        float64 `json:"labor_cost"`
	ShopSuppliesFee  float64 `json:"shop_supplies_fee"`
	EnvironmentalFee float64 `json:"environmental_fee"`
	TaxAmount        float64 `json:"tax_amount"`

	EstimatedCompletionDays int     `json:"estimated_completion_days"`
	EstimatedLaborHours     float64 `json:"estimated_labor_hours"`

	PartsWarrantyMonths int    `json:"parts_warranty_months"`
	LaborWarrantyMonths int    `json:"labor_warranty_months"`
	WarrantyInfo        string `json:"warranty_info"`

	Description        string `json:"description"`
	PartsNeeded        string `json:"parts_needed"`
	RepairPlan         string `json:"repair_plan"`
	AlternativeOptions string `json:"alternative_options"`

	EarliestAvailability *time.Time `json:"earliest_availability"`
	CanProvideLoaner     bool       `json:"can_provide_loaner"`
	CanProvidePickup     bool       `json:"can_provide_pickup"`
	AfterHoursService    bool       `json:"after_hours_service"`
}

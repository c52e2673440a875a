package models

import "time"

// ReferralObligation is the fee owed to the escalating mechanic once a
// bid is accepted. The engine only records the obligation; settlement
// belongs to the financial collaborator.
type ReferralObligation struct {
	ID          string    `db:"id" json:"id"`
	RfqID       string    `db:"rfq_id" json:"rfq_id"`
	BidID       string    `db:"bid_id" json:"bid_id"`
	MechanicID  string    `db:"mechanic_id" json:"mechanic_id"`
	WorkshopID  string    `db:"workshop_id" json:"workshop_id"`
	QuoteAmount float64   `db:"quote_amount" json:"quote_amount"`
	FeePercent  float64   `db:"fee_percent" json:"fee_percent"`
	FeeAmount   float64   `db:"fee_amount" json:"fee_amount"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

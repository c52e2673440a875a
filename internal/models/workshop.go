package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Workshop is the live profile the eligibility gate reads. Bid rows
// carry their own snapshot; this struct is never a historical record.
type Workshop struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	City           string    `db:"city" json:"city"`
	Rating         float64   `db:"rating" json:"rating"`
	ReviewCount    int       `db:"review_count" json:"review_count"`
	Certifications StringSet `db:"certifications" json:"certifications,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

// Roles a workshop staff member can hold.
const (
	RoleOwner          = "owner"
	RoleAdmin          = "admin"
	RoleServiceAdvisor = "service_advisor"
	RoleTechnician     = "technician"
)

// WorkshopRole links a user to a workshop with an explicit quoting
// permission flag. Quote submission additionally requires one of the
// quoting roles below.
type WorkshopRole struct {
	WorkshopID    string    `db:"workshop_id" json:"workshop_id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Role          string    `db:"role" json:"role"`
	CanSendQuotes bool      `db:"can_send_quotes" json:"can_send_quotes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// MayQuote reports whether this role grants bid submission.
func (r *WorkshopRole) MayQuote() bool {
	if !r.CanSendQuotes {
		return false
	}
	switch r.Role {
	case RoleOwner, RoleAdmin, RoleServiceAdvisor:
		return true
	}
	return false
}

// WorkshopRfqView is the engagement ledger row for one (RFQ, workshop)
// pair. It is upserted on view and on bid submission and never
// deleted. Duplicate-bid prevention does not rely on it; the bids
// table uniqueness constraint is authoritative.
type WorkshopRfqView struct {
	RfqID        string    `db:"rfq_id" json:"rfq_id"`
	WorkshopID   string    `db:"workshop_id" json:"workshop_id"`
	LastViewedAt time.Time `db:"last_viewed_at" json:"last_viewed_at"`
	SubmittedBid bool      `db:"submitted_bid" json:"submitted_bid"`
}

// StringSet is a JSON-encoded list of strings stored in a TEXT column.
type StringSet []string

// Value implements driver.Valuer.
func (s StringSet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (s *StringSet) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type for StringSet: %T", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(s))
}

// Contains reports whether the set holds v.
func (s StringSet) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every element of other is present.
func (s StringSet) ContainsAll(other StringSet) bool {
	for _, v := range other {
		if !s.Contains(v) {
			return false
		}
	}
	return true
}

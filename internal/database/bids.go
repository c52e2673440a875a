package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wrenchbid/internal/models"
)

const bidColumns = `id, rfq_id, workshop_id, workshop_name, workshop_city,
	workshop_rating, workshop_review_count, workshop_certifications,
	quote_amount, parts_cost, labor_cost, shop_supplies_fee,
	environmental_fee, tax_amount, estimated_completion_days,
	estimated_labor_hours, parts_warranty_months, labor_warranty_months,
	warranty_info, description, parts_needed, repair_plan,
	alternative_options, earliest_availability, can_provide_loaner,
	can_provide_pickup, after_hours_service, submitted_by_user_id,
	submitted_by_role, status, accepted_at, rejected_at, created_at,
	updated_at`

// CreateBid runs the whole persistence leg of one submission in a
// single transaction: the capacity/deadline gate, the constraint-
// protected insert and the engagement upsert. If the gate refuses, or
// the unique index fires under a duplicate race, nothing survives:
// no orphan bids against a closed RFQ.
func (db *DB) CreateBid(ctx context.Context, bid *models.Bid) error {
	now := time.Now().UTC()
	bid.Status = models.BidStatusPending
	bid.CreatedAt = now
	bid.UpdatedAt = now

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bid transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := registerBid(ctx, tx, bid.RfqID, now); err != nil {
		return err
	}

	query := `INSERT INTO bids (` + bidColumns + `) VALUES
		(:id, :rfq_id, :workshop_id, :workshop_name, :workshop_city,
		 :workshop_rating, :workshop_review_count, :workshop_certifications,
		 :quote_amount, :parts_cost, :labor_cost, :shop_supplies_fee,
		 :environmental_fee, :tax_amount, :estimated_completion_days,
		 :estimated_labor_hours, :parts_warranty_months, :labor_warranty_months,
		 :warranty_info, :description, :parts_needed, :repair_plan,
		 :alternative_options, :earliest_availability, :can_provide_loaner,
		 :can_provide_pickup, :after_hours_service, :submitted_by_user_id,
		 :submitted_by_role, :status, :accepted_at, :rejected_at, :created_at,
		 :updated_at)`

	if _, err := tx.NamedExecContext(ctx, query, bid); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBid
		}
		return fmt.Errorf("insert bid: %w", err)
	}

	if err := upsertViewTx(ctx, tx, bid.RfqID, bid.WorkshopID, true, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bid: %w", err)
	}
	return nil
}

// GetBid returns one bid or ErrNotFound.
func (db *DB) GetBid(ctx context.Context, id string) (*models.Bid, error) {
	var bid models.Bid
	err := db.GetContext(ctx, &bid, `SELECT `+bidColumns+` FROM bids WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bid: %w", err)
	}
	return &bid, nil
}

// BidFilter narrows bid listings.
type BidFilter struct {
	Status models.BidStatus
	Limit  int
	Offset int
}

// ListBidsForRfq returns the bids on one RFQ, newest first.
func (db *DB) ListBidsForRfq(ctx context.Context, rfqID string, f BidFilter) ([]*models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE rfq_id = ?`
	args := []any{rfqID}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"

	limit := f.Limit
	if limit <= 0 || limit > models.MaxPageSize {
		limit = models.DefaultPageSize
	}
	args = append(args, limit, f.Offset)

	bids := []*models.Bid{}
	if err := db.SelectContext(ctx, &bids, query, args...); err != nil {
		return nil, fmt.Errorf("list bids for rfq: %w", err)
	}
	return bids, nil
}

// ListWorkshopBids returns one workshop's bids across all RFQs.
func (db *DB) ListWorkshopBids(ctx context.Context, workshopID string, f BidFilter) ([]*models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE workshop_id = ?`
	args := []any{workshopID}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"

	limit := f.Limit
	if limit <= 0 || limit > models.MaxPageSize {
		limit = models.DefaultPageSize
	}
	args = append(args, limit, f.Offset)

	bids := []*models.Bid{}
	if err := db.SelectContext(ctx, &bids, query, args...); err != nil {
		return nil, fmt.Errorf("list workshop bids: %w", err)
	}
	return bids, nil
}

// HasLiveBid reports whether the workshop holds a non-rejected bid on
// the RFQ. This pre-check reduces failed-write churn; the unique index
// remains the source of truth.
func (db *DB) HasLiveBid(ctx context.Context, rfqID, workshopID string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count,
		`SELECT COUNT(1) FROM bids WHERE rfq_id = ? AND workshop_id = ? AND status != 'rejected'`,
		rfqID, workshopID)
	if err != nil {
		return false, fmt.Errorf("check live bid: %w", err)
	}
	return count > 0, nil
}

// AcceptBid resolves an RFQ as one atomic unit: the RFQ leaves open
// exactly once, the target bid becomes accepted, every sibling pending
// bid becomes rejected. A concurrent second accept observes the
// conditional status update losing and gets ErrAlreadyResolved.
// The rejected bids are returned for notification fan-out.
func (db *DB) AcceptBid(ctx context.Context, rfqID, bidID string) (*models.Bid, []*models.Bid, error) {
	now := time.Now().UTC()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin accept transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Single-accept gate: only one caller can move the RFQ out of open.
	res, err := tx.ExecContext(ctx, `
		UPDATE rfqs SET status = 'accepted', accepted_bid_id = ?, updated_at = ?
		WHERE id = ? AND status = 'open'`,
		bidID, now, rfqID)
	if err != nil {
		return nil, nil, fmt.Errorf("accept rfq: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		var status models.RfqStatus
		err := tx.GetContext(ctx, &status, `SELECT status FROM rfqs WHERE id = ?`, rfqID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		if err != nil {
			return nil, nil, fmt.Errorf("classify accept refusal: %w", err)
		}
		return nil, nil, ErrAlreadyResolved
	}

	// The winning bid must belong to this RFQ and still be pending.
	res, err = tx.ExecContext(ctx, `
		UPDATE bids SET status = 'accepted', accepted_at = ?, updated_at = ?
		WHERE id = ? AND rfq_id = ? AND status = 'pending'`,
		now, now, bidID, rfqID)
	if err != nil {
		return nil, nil, fmt.Errorf("accept bid: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, nil, ErrInvalidState
	}

	// Collect the losers before flipping them, for notifications.
	rejected := []*models.Bid{}
	err = tx.SelectContext(ctx, &rejected,
		`SELECT `+bidColumns+` FROM bids WHERE rfq_id = ? AND id != ? AND status = 'pending'`,
		rfqID, bidID)
	if err != nil {
		return nil, nil, fmt.Errorf("select sibling bids: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bids SET status = 'rejected', rejected_at = ?, updated_at = ?
		WHERE rfq_id = ? AND id != ? AND status = 'pending'`,
		now, now, rfqID, bidID); err != nil {
		return nil, nil, fmt.Errorf("reject sibling bids: %w", err)
	}

	var winner models.Bid
	if err := tx.GetContext(ctx, &winner,
		`SELECT `+bidColumns+` FROM bids WHERE id = ?`, bidID); err != nil {
		return nil, nil, fmt.Errorf("reload winning bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit accept: %w", err)
	}

	for i := range rejected {
		rejected[i].Status = models.BidStatusRejected
	}
	return &winner, rejected, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"wrenchbid/internal/models"
)

func upsertViewTx(ctx context.Context, tx *sqlx.Tx, rfqID, workshopID string, submittedBid bool, now time.Time) error {
	// submitted_bid is sticky: once true it never flips back on a
	// later plain view.
	_, err := tx.ExecContext(ctx, `
		INSERT INTO rfq_views (rfq_id, workshop_id, last_viewed_at, submitted_bid)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(rfq_id, workshop_id) DO UPDATE SET
			last_viewed_at = excluded.last_viewed_at,
			submitted_bid = submitted_bid OR excluded.submitted_bid`,
		rfqID, workshopID, now, submittedBid)
	if err != nil {
		return fmt.Errorf("upsert rfq view: %w", err)
	}
	return nil
}

// RecordView marks that a workshop looked at an RFQ.
func (db *DB) RecordView(ctx context.Context, rfqID, workshopID string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin view transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertViewTx(ctx, tx, rfqID, workshopID, false, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// GetView returns the engagement row for one (RFQ, workshop) pair.
func (db *DB) GetView(ctx context.Context, rfqID, workshopID string) (*models.WorkshopRfqView, error) {
	var view models.WorkshopRfqView
	err := db.GetContext(ctx, &view, `
		SELECT rfq_id, workshop_id, last_viewed_at, submitted_bid
		FROM rfq_views WHERE rfq_id = ? AND workshop_id = ?`,
		rfqID, workshopID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rfq view: %w", err)
	}
	return &view, nil
}

// CountViews returns how many distinct workshops viewed the RFQ.
func (db *DB) CountViews(ctx context.Context, rfqID string) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count,
		`SELECT COUNT(1) FROM rfq_views WHERE rfq_id = ?`, rfqID); err != nil {
		return 0, fmt.Errorf("count rfq views: %w", err)
	}
	return count, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wrenchbid/internal/models"
)

// CreateReferralObligation records the mechanic's fee for a resolved
// RFQ. The unique index on rfq_id makes retries idempotent: a second
// insert for the same RFQ is reported as ErrDuplicateReferral and the
// first record stands.
func (db *DB) CreateReferralObligation(ctx context.Context, o *models.ReferralObligation) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = "recorded"
	}
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO referral_obligations
			(id, rfq_id, bid_id, mechanic_id, workshop_id, quote_amount, fee_percent, fee_amount, status, created_at)
		VALUES
			(:id, :rfq_id, :bid_id, :mechanic_id, :workshop_id, :quote_amount, :fee_percent, :fee_amount, :status, :created_at)`,
		o)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReferral
		}
		return fmt.Errorf("insert referral obligation: %w", err)
	}
	return nil
}

// GetReferralByRfq returns the obligation recorded for an RFQ.
func (db *DB) GetReferralByRfq(ctx context.Context, rfqID string) (*models.ReferralObligation, error) {
	var o models.ReferralObligation
	err := db.GetContext(ctx, &o, `
		SELECT id, rfq_id, bid_id, mechanic_id, workshop_id, quote_amount, fee_percent, fee_amount, status, created_at
		FROM referral_obligations WHERE rfq_id = ?`, rfqID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get referral obligation: %w", err)
	}
	return &o, nil
}

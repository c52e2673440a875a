package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"wrenchbid/internal/models"
)

const rfqColumns = `id, title, description, issue_category, urgency,
	vehicle_make, vehicle_model, vehicle_year, vehicle_mileage,
	customer_city, customer_province, customer_id, mechanic_id,
	budget_min, budget_max, max_bids, bid_deadline,
	min_workshop_rating, required_certifications, bid_count, status,
	accepted_bid_id, created_at, updated_at`

// CreateRfq persists a new RFQ. The caller (lifecycle controller) has
// already validated parameters; status and bid_count are forced to
// their opening values here regardless of input.
func (db *DB) CreateRfq(ctx context.Context, rfq *models.Rfq) error {
	now := time.Now().UTC()
	rfq.Status = models.RfqStatusOpen
	rfq.BidCount = 0
	rfq.CreatedAt = now
	rfq.UpdatedAt = now

	query := `INSERT INTO rfqs (` + rfqColumns + `) VALUES
		(:id, :title, :description, :issue_category, :urgency,
		 :vehicle_make, :vehicle_model, :vehicle_year, :vehicle_mileage,
		 :customer_city, :customer_province, :customer_id, :mechanic_id,
		 :budget_min, :budget_max, :max_bids, :bid_deadline,
		 :min_workshop_rating, :required_certifications, :bid_count, :status,
		 :accepted_bid_id, :created_at, :updated_at)`

	if _, err := db.NamedExecContext(ctx, query, rfq); err != nil {
		return fmt.Errorf("create rfq: %w", err)
	}
	return nil
}

// GetRfq returns one RFQ or ErrNotFound.
func (db *DB) GetRfq(ctx context.Context, id string) (*models.Rfq, error) {
	var rfq models.Rfq
	err := db.GetContext(ctx, &rfq, `SELECT `+rfqColumns+` FROM rfqs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rfq: %w", err)
	}
	return &rfq, nil
}

// RfqFilter narrows the marketplace listing.
type RfqFilter struct {
	Status         models.RfqStatus
	IssueCategory  string
	Urgency        string
	BudgetMin      *float64
	BudgetMax      *float64
	HideAlreadyBid string // workshop id; skips RFQs the workshop holds a live bid on
	Limit          int
	Offset         int
}

// ListRfqs returns RFQs matching the filter, newest first.
func (db *DB) ListRfqs(ctx context.Context, f RfqFilter) ([]*models.Rfq, error) {
	var (
		where []string
		args  []any
	)

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.IssueCategory != "" {
		where = append(where, "issue_category = ?")
		args = append(args, f.IssueCategory)
	}
	if f.Urgency != "" {
		where = append(where, "urgency = ?")
		args = append(args, f.Urgency)
	}
	if f.BudgetMin != nil {
		where = append(where, "(budget_max IS NULL OR budget_max >= ?)")
		args = append(args, *f.BudgetMin)
	}
	if f.BudgetMax != nil {
		where = append(where, "(budget_min IS NULL OR budget_min <= ?)")
		args = append(args, *f.BudgetMax)
	}
	if f.HideAlreadyBid != "" {
		where = append(where, `NOT EXISTS (
			SELECT 1 FROM bids b
			WHERE b.rfq_id = rfqs.id AND b.workshop_id = ? AND b.status != 'rejected')`)
		args = append(args, f.HideAlreadyBid)
	}

	query := `SELECT ` + rfqColumns + ` FROM rfqs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := f.Limit
	if limit <= 0 || limit > models.MaxPageSize {
		limit = models.DefaultPageSize
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rfqs := []*models.Rfq{}
	if err := db.SelectContext(ctx, &rfqs, query, args...); err != nil {
		return nil, fmt.Errorf("list rfqs: %w", err)
	}
	return rfqs, nil
}

// registerBid is the authoritative capacity/deadline gate: a single
// conditional update that only succeeds while the RFQ is open, the
// deadline lies ahead and capacity remains. Two racing submissions can
// never both pass once only one slot is left.
func registerBid(ctx context.Context, tx *sqlx.Tx, rfqID string, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE rfqs SET bid_count = bid_count + 1, updated_at = ?
		WHERE id = ? AND status = 'open' AND bid_deadline > ? AND bid_count < max_bids`,
		now, rfqID, now)
	if err != nil {
		return fmt.Errorf("register bid: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 1 {
		return nil
	}

	// Gate refused; classify the reason for the caller.
	var probe struct {
		Status      models.RfqStatus `db:"status"`
		BidDeadline time.Time        `db:"bid_deadline"`
		BidCount    int              `db:"bid_count"`
		MaxBids     int              `db:"max_bids"`
	}
	err = tx.GetContext(ctx, &probe,
		`SELECT status, bid_deadline, bid_count, max_bids FROM rfqs WHERE id = ?`, rfqID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify gate refusal: %w", err)
	}

	switch {
	case probe.Status != models.RfqStatusOpen:
		return ErrRfqNotOpen
	case !now.Before(probe.BidDeadline):
		return ErrDeadlinePassed
	case probe.BidCount >= probe.MaxBids:
		return ErrCapacityExceeded
	default:
		return ErrConcurrentModification
	}
}

// TransitionRfq moves an RFQ between states, enforcing the transition
// table. Returns ErrAlreadyResolved when the row is already terminal
// and ErrNotFound when it does not exist.
func (db *DB) TransitionRfq(ctx context.Context, id string, from, to models.RfqStatus) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE rfqs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("transition rfq: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 1 {
		return nil
	}

	current, err := db.GetRfq(ctx, id)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return ErrAlreadyResolved
	}
	return ErrConcurrentModification
}

// CloseIfExpired idempotently expires one RFQ whose deadline passed.
// Returns true when this call performed the transition.
func (db *DB) CloseIfExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE rfqs SET status = 'expired', updated_at = ?
		WHERE id = ? AND status = 'open' AND bid_deadline <= ?`,
		now, id, now)
	if err != nil {
		return false, fmt.Errorf("close expired rfq: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows == 1, nil
}

// ExpireDue sweeps every open RFQ whose deadline passed and returns
// the expired rows for notification fan-out. Safe to run repeatedly.
func (db *DB) ExpireDue(ctx context.Context, now time.Time) ([]*models.Rfq, error) {
	due := []*models.Rfq{}
	err := db.SelectContext(ctx, &due,
		`SELECT `+rfqColumns+` FROM rfqs WHERE status = 'open' AND bid_deadline <= ?`, now)
	if err != nil {
		return nil, fmt.Errorf("select due rfqs: %w", err)
	}
	if len(due) == 0 {
		return nil, nil
	}

	expired := make([]*models.Rfq, 0, len(due))
	for _, rfq := range due {
		did, err := db.CloseIfExpired(ctx, rfq.ID, now)
		if err != nil {
			return expired, err
		}
		if did {
			rfq.Status = models.RfqStatusExpired
			expired = append(expired, rfq)
		}
	}
	return expired, nil
}

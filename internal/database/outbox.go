package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wrenchbid/internal/models"
)

// CreateNotification appends a message to the durable outbox and
// fills in the generated id.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = models.NotificationStatusPending
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO notification_outbox (recipient_id, event_type, payload, status, retry_count, last_error, next_retry_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.RecipientID, n.EventType, n.Payload, n.Status, n.RetryCount, n.LastError, n.NextRetryAt, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification id: %w", err)
	}
	return nil
}

// PendingNotifications returns outbox rows that are due for delivery:
// freshly enqueued ones, plus retries whose backoff has elapsed.
func (db *DB) PendingNotifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows := []*models.Notification{}
	err := db.SelectContext(ctx, &rows, `
		SELECT id, recipient_id, event_type, payload, status, retry_count, last_error, next_retry_at, processed_at, created_at
		FROM notification_outbox
		WHERE status = ? OR (status = ? AND next_retry_at <= ?)
		ORDER BY id ASC
		LIMIT ?`,
		models.NotificationStatusPending, models.NotificationStatusRetry, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("select pending notifications: %w", err)
	}
	return rows, nil
}

// MarkNotificationCompleted closes an outbox row after delivery.
func (db *DB) MarkNotificationCompleted(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `
		UPDATE notification_outbox SET status = ?, processed_at = ? WHERE id = ?`,
		models.NotificationStatusCompleted, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("complete notification: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkNotificationRetry schedules another delivery attempt.
func (db *DB) MarkNotificationRetry(ctx context.Context, id int64, attempt int, lastErr string, nextRetry time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = ?, retry_count = ?, last_error = ?, next_retry_at = ?
		WHERE id = ?`,
		models.NotificationStatusRetry, attempt, lastErr,
		sql.NullTime{Time: nextRetry, Valid: true}, id)
	if err != nil {
		return fmt.Errorf("schedule notification retry: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkNotificationDead parks a row that exhausted its retries. Dead
// rows stay in the table for operator inspection.
func (db *DB) MarkNotificationDead(ctx context.Context, id int64, lastErr string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = ?, last_error = ?, processed_at = ?
		WHERE id = ?`,
		models.NotificationStatusDead, lastErr, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("dead-letter notification: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

package models

import (
	"database/sql"
	"time"
)

// Notification delivery states in the outbox.
const (
	NotificationStatusPending   = "pending"
	NotificationStatusRetry     = "retry"
	NotificationStatusCompleted = "completed"
	NotificationStatusDead      = "dead"
)

// Notification is one outbound message decided by the engine. The
// outbox row is the durable source; redis only shortens latency.
type Notification struct {
	ID          int64        `db:"id" json:"id"`
	RecipientID string       `db:"recipient_id" json:"recipient_id"`
	EventType   string       `db:"event_type" json:"event_type"`
	Payload     string       `db:"payload" json:"payload"`
	Status      string       `db:"status" json:"status"`
	RetryCount  int          `db:"retry_count" json:"retry_count"`
	LastError   string       `db:"last_error" json:"last_error,omitempty"`
	NextRetryAt sql.NullTime `db:"next_retry_at" json:"-"`
	ProcessedAt sql.NullTime `db:"processed_at" json:"-"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

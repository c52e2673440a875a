package domain

import (
	"context"
	"time"

	"wrenchbid/internal/database"
	"wrenchbid/internal/models"
)

type Repository interface {
	CreateRfq(ctx context.Context, rfq *models.Rfq) error
	GetRfq(ctx context.Context, id string) (*models.Rfq, error)
	ListRfqs(ctx context.Context, f database.RfqFilter) ([]*models.Rfq, error)
	TransitionRfq(ctx context.Context, id string, from, to models.RfqStatus) error
	CloseIfExpired(ctx context.Context, id string, now time.Time) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) ([]*models.Rfq, error)
	CreateBid(ctx context.Context, bid *models.Bid) error
	GetBid(ctx context.Context, id string) (*models.Bid, error)
	ListBidsForRfq(ctx context.Context, rfqID string, f database.BidFilter) ([]*models.Bid, error)
	ListWorkshopBids(ctx context.Context, workshopID string, f database.BidFilter) ([]*models.Bid, error)
	HasLiveBid(ctx context.Context, rfqID, workshopID string) (bool, error)
	AcceptBid(ctx context.Context, rfqID, bidID string) (*models.Bid, []*models.Bid, error)
	RecordView(ctx context.Context, rfqID, workshopID string) error
	GetView(ctx context.Context, rfqID, workshopID string) (*models.WorkshopRfqView, error)
	CountViews(ctx context.Context, rfqID string) (int, error)
}

// RoleProvider answers whether a user may act for a workshop.
type RoleProvider interface {
	GetRole(ctx context.Context, workshopID, userID string) (*models.WorkshopRole, error)
}

// ReputationProvider resolves the live workshop profile that
// eligibility checks and bid snapshots read from.
type ReputationProvider interface {
	GetWorkshop(ctx context.Context, id string) (*models.Workshop, error)
}

// ReferralRecorder persists the mechanic's fee after a bid wins.
type ReferralRecorder interface {
	CreateReferralObligation(ctx context.Context, o *models.ReferralObligation) error
}

// Notifier accepts a notification for asynchronous delivery. Enqueue
// must return quickly; delivery failures never surface to the caller.
type Notifier interface {
	Enqueue(ctx context.Context, recipientID, eventType string, payload any) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// EngagementTracker keeps the hot who-viewed-what state used by the
// marketplace listing. Implementations may lose data; the rfq_views
// table remains authoritative.
type EngagementTracker interface {
	TrackView(ctx context.Context, rfqID, workshopID string) error
	ViewCount(ctx context.Context, rfqID string) (int64, error)
	CheckRateLimit(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error)
}

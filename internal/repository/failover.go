package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"wrenchbid/internal/domain"
)

// FailoverEngagementStore serves from the primary (redis) until it
// errors, then degrades to the fallback and probes the primary again
// after a cooldown. Counts may diverge while degraded; that is an
// accepted trade for keeping the marketplace responsive.
type FailoverEngagementStore struct {
	primary   domain.EngagementTracker
	fallback  domain.EngagementTracker
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverEngagementStore(primary, fallback domain.EngagementTracker, logger *zerolog.Logger) *FailoverEngagementStore {
	return &FailoverEngagementStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverEngagementStore) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary engagement store failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverEngagementStore) TrackView(ctx context.Context, rfqID, workshopID string) error {
	if !r.isDown.Load() {
		err := r.primary.TrackView(ctx, rfqID, workshopID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.TrackView(ctx, rfqID, workshopID)
}

func (r *FailoverEngagementStore) ViewCount(ctx context.Context, rfqID string) (int64, error) {
	if !r.isDown.Load() {
		count, err := r.primary.ViewCount(ctx, rfqID)
		if err == nil {
			return count, nil
		}
		r.markDown(err)
	}

	// Try to recover after a minute of degraded service.
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		count, err := r.primary.ViewCount(ctx, rfqID)
		if err == nil {
			r.isDown.Store(false)
			return count, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.ViewCount(ctx, rfqID)
}

func (r *FailoverEngagementStore) CheckRateLimit(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, actorID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, actorID, limit, window)
}

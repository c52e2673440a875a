package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wrenchbid/internal/database"
	"wrenchbid/internal/domain"
	"wrenchbid/internal/events"
	"wrenchbid/internal/metrics"
	"wrenchbid/internal/models"
)

type RfqService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	notifier       domain.Notifier
	defaultMaxBids int
	logger         *zerolog.Logger
}

func NewRfqService(repo domain.Repository, eventBus domain.EventPublisher, notifier domain.Notifier, defaultMaxBids int, logger *zerolog.Logger) *RfqService {
	if defaultMaxBids <= 0 {
		defaultMaxBids = models.DefaultMaxBids
	}
	return &RfqService{
		repo:           repo,
		eventBus:       eventBus,
		notifier:       notifier,
		defaultMaxBids: defaultMaxBids,
		logger:         logger,
	}
}

// Open validates and persists a new RFQ in the open state. Defaults
// are filled before validation so a zero max_bids becomes the
// configured cap rather than an error.
func (s *RfqService) Open(ctx context.Context, rfq *models.Rfq) error {
	now := time.Now()
	if rfq.MaxBids == 0 {
		rfq.MaxBids = s.defaultMaxBids
	}
	if rfq.Urgency == "" {
		rfq.Urgency = models.UrgencyMedium
	}
	if err := ValidateRfqParams(rfq, now); err != nil {
		return err
	}
	if rfq.ID == "" {
		rfq.ID = uuid.NewString()
	}

	if err := s.repo.CreateRfq(ctx, rfq); err != nil {
		return err
	}

	s.logger.Info().
		Str("rfq_id", rfq.ID).
		Str("mechanic_id", rfq.MechanicID).
		Int("max_bids", rfq.MaxBids).
		Time("bid_deadline", rfq.BidDeadline).
		Msg("rfq opened")

	metrics.IncRfqOpened()
	s.publishRfqEvent(events.EventRfqOpened, rfq)
	return nil
}

// Get returns an RFQ, lazily expiring it when the deadline passed but
// the sweeper has not reached it yet. Callers always observe a status
// consistent with the clock.
func (s *RfqService) Get(ctx context.Context, id string) (*models.Rfq, error) {
	rfq, err := s.repo.GetRfq(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if rfq.Status == models.RfqStatusOpen && rfq.Expired(now) {
		did, err := s.repo.CloseIfExpired(ctx, id, now.UTC())
		if err != nil {
			return nil, err
		}
		if did {
			rfq.Status = models.RfqStatusExpired
			metrics.IncRfqClosed("expired")
			s.publishRfqEvent(events.EventRfqExpired, rfq)
			s.notifyExpired(ctx, rfq)
		} else {
			// Lost the race to the sweeper or a resolver; reload.
			return s.repo.GetRfq(ctx, id)
		}
	}
	return rfq, nil
}

// List returns RFQs matching the marketplace filter.
func (s *RfqService) List(ctx context.Context, f database.RfqFilter) ([]*models.Rfq, error) {
	return s.repo.ListRfqs(ctx, f)
}

// Cancel withdraws an open RFQ. Only the owning customer or the
// escalating mechanic may cancel.
func (s *RfqService) Cancel(ctx context.Context, id, actorID string) error {
	rfq, err := s.repo.GetRfq(ctx, id)
	if err != nil {
		return err
	}
	if actorID != rfq.CustomerID && actorID != rfq.MechanicID {
		return ErrForbidden
	}

	if err := s.repo.TransitionRfq(ctx, id, models.RfqStatusOpen, models.RfqStatusCancelled); err != nil {
		return err
	}

	s.logger.Info().Str("rfq_id", id).Str("actor_id", actorID).Msg("rfq cancelled")

	metrics.IncRfqClosed("cancelled")
	rfq.Status = models.RfqStatusCancelled
	s.publishRfqEvent(events.EventRfqCancelled, rfq)

	// Pending bidders learn their bids died with the RFQ.
	s.notifyBidders(ctx, rfq, events.EventRfqCancelled)
	return nil
}

// RecordView marks workshop engagement with an RFQ.
func (s *RfqService) RecordView(ctx context.Context, rfqID, workshopID string) error {
	if _, err := s.repo.GetRfq(ctx, rfqID); err != nil {
		return err
	}
	return s.repo.RecordView(ctx, rfqID, workshopID)
}

// SweepExpired closes every overdue RFQ and fans out notifications.
// Returns how many were expired by this call.
func (s *RfqService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return len(expired), err
	}
	for _, rfq := range expired {
		metrics.IncRfqClosed("expired")
		s.publishRfqEvent(events.EventRfqExpired, rfq)
		s.notifyExpired(ctx, rfq)
	}
	return len(expired), nil
}

func (s *RfqService) publishRfqEvent(eventType string, rfq *models.Rfq) {
	err := s.eventBus.PublishJSON(eventType, events.RfqEventPayload{
		RfqID:       rfq.ID,
		Title:       rfq.Title,
		Status:      string(rfq.Status),
		CustomerID:  rfq.CustomerID,
		MechanicID:  rfq.MechanicID,
		BidCount:    rfq.BidCount,
		BidDeadline: rfq.BidDeadline,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish rfq event")
	}
}

func (s *RfqService) notifyExpired(ctx context.Context, rfq *models.Rfq) {
	payload := map[string]any{"rfq_id": rfq.ID, "title": rfq.Title, "bid_count": rfq.BidCount}
	if err := s.notifier.Enqueue(ctx, rfq.CustomerID, events.EventRfqExpired, payload); err != nil {
		s.logger.Error().Err(err).Str("rfq_id", rfq.ID).Msg("failed to enqueue expiry notification")
	}
	s.notifyBidders(ctx, rfq, events.EventRfqExpired)
}

func (s *RfqService) notifyBidders(ctx context.Context, rfq *models.Rfq, eventType string) {
	bids, err := s.repo.ListBidsForRfq(ctx, rfq.ID, database.BidFilter{Status: models.BidStatusPending})
	if err != nil {
		s.logger.Error().Err(err).Str("rfq_id", rfq.ID).Msg("failed to list bidders for notification")
		return
	}
	for _, bid := range bids {
		payload := map[string]any{"rfq_id": rfq.ID, "bid_id": bid.ID, "title": rfq.Title}
		if err := s.notifier.Enqueue(ctx, bid.SubmittedByUserID, eventType, payload); err != nil {
			s.logger.Error().Err(err).Str("bid_id", bid.ID).Msg("failed to enqueue bidder notification")
		}
	}
}

package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wrenchbid/internal/database"
	"wrenchbid/internal/domain"
	"wrenchbid/internal/events"
	"wrenchbid/internal/metrics"
	"wrenchbid/internal/models"
)

type ResolutionService struct {
	repo       domain.Repository
	referrals  domain.ReferralRecorder
	eventBus   domain.EventPublisher
	notifier   domain.Notifier
	feePercent float64
	logger     *zerolog.Logger
}

func NewResolutionService(
	repo domain.Repository,
	referrals domain.ReferralRecorder,
	eventBus domain.EventPublisher,
	notifier domain.Notifier,
	feePercent float64,
	logger *zerolog.Logger,
) *ResolutionService {
	if feePercent <= 0 {
		feePercent = models.DefaultReferralFeePercent
	}
	return &ResolutionService{
		repo:       repo,
		referrals:  referrals,
		eventBus:   eventBus,
		notifier:   notifier,
		feePercent: feePercent,
		logger:     logger,
	}
}

// Accept resolves an RFQ in favor of one bid. Only the owning
// customer or the originating mechanic may accept. The storage
// transaction settles winner, losers and RFQ status atomically;
// referral recording and notifications happen after commit and never
// unwind the resolution.
func (s *ResolutionService) Accept(ctx context.Context, rfqID, bidID, actorID string) (*models.Bid, error) {
	rfq, err := s.repo.GetRfq(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if actorID != rfq.CustomerID && actorID != rfq.MechanicID {
		return nil, ErrForbidden
	}

	winner, rejected, err := s.repo.AcceptBid(ctx, rfqID, bidID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("rfq_id", rfqID).
		Str("bid_id", bidID).
		Int("rejected_bids", len(rejected)).
		Float64("quote_amount", winner.QuoteAmount).
		Msg("rfq resolved")

	metrics.IncRfqClosed("accepted")

	s.recordReferral(ctx, rfq, winner)

	s.publishBidEvent(events.EventBidAccepted, winner)
	for _, loser := range rejected {
		s.publishBidEvent(events.EventBidRejected, loser)
	}
	s.notifyResolution(ctx, rfq, winner, rejected)

	return winner, nil
}

// recordReferral persists the mechanic's fee. Failures are logged,
// not returned: the accept already committed and a missed obligation
// is recoverable from the rfqs table by reconciliation.
func (s *ResolutionService) recordReferral(ctx context.Context, rfq *models.Rfq, winner *models.Bid) {
	fee := math.Round(winner.QuoteAmount*s.feePercent) / 100

	err := s.referrals.CreateReferralObligation(ctx, &models.ReferralObligation{
		ID:          uuid.NewString(),
		RfqID:       rfq.ID,
		BidID:       winner.ID,
		MechanicID:  rfq.MechanicID,
		WorkshopID:  winner.WorkshopID,
		QuoteAmount: winner.QuoteAmount,
		FeePercent:  s.feePercent,
		FeeAmount:   fee,
	})
	if err != nil && !errors.Is(err, database.ErrDuplicateReferral) {
		s.logger.Error().Err(err).
			Str("rfq_id", rfq.ID).
			Str("bid_id", winner.ID).
			Msg("failed to record referral obligation")
	}
}

func (s *ResolutionService) publishBidEvent(eventType string, bid *models.Bid) {
	err := s.eventBus.PublishJSON(eventType, events.BidEventPayload{
		BidID:        bid.ID,
		RfqID:        bid.RfqID,
		WorkshopID:   bid.WorkshopID,
		WorkshopName: bid.WorkshopName,
		QuoteAmount:  bid.QuoteAmount,
		Status:       string(bid.Status),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish bid event")
	}
}

func (s *ResolutionService) notifyResolution(ctx context.Context, rfq *models.Rfq, winner *models.Bid, rejected []*models.Bid) {
	winPayload := map[string]any{
		"rfq_id":       rfq.ID,
		"rfq_title":    rfq.Title,
		"bid_id":       winner.ID,
		"quote_amount": winner.QuoteAmount,
	}
	if err := s.notifier.Enqueue(ctx, winner.SubmittedByUserID, events.EventBidAccepted, winPayload); err != nil {
		s.logger.Error().Err(err).Str("bid_id", winner.ID).Msg("failed to enqueue winner notification")
	}
	if err := s.notifier.Enqueue(ctx, rfq.MechanicID, events.EventBidAccepted, winPayload); err != nil {
		s.logger.Error().Err(err).Str("rfq_id", rfq.ID).Msg("failed to enqueue mechanic notification")
	}

	for _, loser := range rejected {
		payload := map[string]any{
			"rfq_id":    rfq.ID,
			"rfq_title": rfq.Title,
			"bid_id":    loser.ID,
		}
		if err := s.notifier.Enqueue(ctx, loser.SubmittedByUserID, events.EventBidRejected, payload); err != nil {
			s.logger.Error().Err(err).Str("bid_id", loser.ID).Msg("failed to enqueue loser notification")
		}
	}
}

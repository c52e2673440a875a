package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wrenchbid/internal/database"
	"wrenchbid/internal/domain"
	"wrenchbid/internal/events"
	"wrenchbid/internal/metrics"
	"wrenchbid/internal/models"
)

type BidService struct {
	repo       domain.Repository
	roles      domain.RoleProvider
	reputation domain.ReputationProvider
	eventBus   domain.EventPublisher
	notifier   domain.Notifier
	logger     *zerolog.Logger
}

func NewBidService(
	repo domain.Repository,
	roles domain.RoleProvider,
	reputation domain.ReputationProvider,
	eventBus domain.EventPublisher,
	notifier domain.Notifier,
	logger *zerolog.Logger,
) *BidService {
	return &BidService{
		repo:       repo,
		roles:      roles,
		reputation: reputation,
		eventBus:   eventBus,
		notifier:   notifier,
		logger:     logger,
	}
}

// Submit runs the full submission pipeline: payload validation, role
// check, eligibility against the live profile, then the transactional
// insert that enforces the open/deadline/capacity/duplicate gates.
// Notifications go out only after the bid is durable.
func (s *BidService) Submit(ctx context.Context, rfqID, workshopID, userID string, payload *models.BidPayload) (*models.Bid, error) {
	if err := ValidateBidPayload(payload); err != nil {
		return nil, err
	}

	role, err := s.roles.GetRole(ctx, workshopID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !role.MayQuote() {
		return nil, ErrForbidden
	}

	rfq, err := s.repo.GetRfq(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	// Cheap pre-checks before the transaction; the database gate
	// re-verifies all of them atomically.
	if rfq.Status != models.RfqStatusOpen {
		return nil, fmt.Errorf("%w: %w", ErrBiddingClosed, database.ErrRfqNotOpen)
	}
	if rfq.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: %w", ErrBiddingClosed, database.ErrDeadlinePassed)
	}

	// Duplicate check ahead of the capacity gate so a workshop whose
	// own bid filled the RFQ hears "already submitted", not "full".
	// The unique index stays authoritative under races.
	dup, err := s.repo.HasLiveBid(ctx, rfqID, workshopID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, database.ErrDuplicateBid
	}

	workshop, err := s.reputation.GetWorkshop(ctx, workshopID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown workshop", ErrNotEligible)
		}
		return nil, err
	}
	if err := CheckEligibility(rfq, workshop); err != nil {
		return nil, err
	}

	bid := buildBid(rfqID, workshop, role, payload)
	if err := s.repo.CreateBid(ctx, bid); err != nil {
		metrics.IncBidRejected(gateReason(err))
		return nil, err
	}

	metrics.IncBidSubmitted()
	s.logger.Info().
		Str("bid_id", bid.ID).
		Str("rfq_id", rfqID).
		Str("workshop_id", workshopID).
		Float64("quote_amount", bid.QuoteAmount).
		Msg("bid submitted")

	s.publishBidEvent(events.EventBidSubmitted, bid)
	s.notifyBidSubmitted(ctx, rfq, bid)

	return bid, nil
}

// Get returns one bid.
func (s *BidService) Get(ctx context.Context, id string) (*models.Bid, error) {
	return s.repo.GetBid(ctx, id)
}

// ListForRfq returns an RFQ's bids. Only the RFQ owner or its
// mechanic may see the competing quotes.
func (s *BidService) ListForRfq(ctx context.Context, rfqID, actorID string, f database.BidFilter) ([]*models.Bid, error) {
	rfq, err := s.repo.GetRfq(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if actorID != rfq.CustomerID && actorID != rfq.MechanicID {
		return nil, ErrForbidden
	}
	return s.repo.ListBidsForRfq(ctx, rfqID, f)
}

// ListForWorkshop returns a workshop's own bids across the market.
func (s *BidService) ListForWorkshop(ctx context.Context, workshopID, userID string, f database.BidFilter) ([]*models.Bid, error) {
	if _, err := s.roles.GetRole(ctx, workshopID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return s.repo.ListWorkshopBids(ctx, workshopID, f)
}

func gateReason(err error) string {
	switch {
	case errors.Is(err, database.ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, database.ErrDuplicateBid):
		return "duplicate"
	case errors.Is(err, database.ErrDeadlinePassed):
		return "deadline"
	case errors.Is(err, database.ErrRfqNotOpen):
		return "not_open"
	default:
		return "other"
	}
}

func buildBid(rfqID string, workshop *models.Workshop, role *models.WorkshopRole, p *models.BidPayload) *models.Bid {
	return &models.Bid{
		ID:         uuid.NewString(),
		RfqID:      rfqID,
		WorkshopID: workshop.ID,

		WorkshopName:           workshop.Name,
		WorkshopCity:           workshop.City,
		WorkshopRating:         workshop.Rating,
		WorkshopReviewCount:    workshop.ReviewCount,
		WorkshopCertifications: workshop.Certifications,

		QuoteAmount:      p.QuoteAmount,
		PartsCost:        p.PartsCost,
		LaborCost:        p.LaborCost,
		ShopSuppliesFee:  p.ShopSuppliesFee,
		EnvironmentalFee: p.EnvironmentalFee,
		TaxAmount:        p.TaxAmount,

		EstimatedCompletionDays: p.EstimatedCompletionDays,
		EstimatedLaborHours:     p.EstimatedLaborHours,
		PartsWarrantyMonths:     p.PartsWarrantyMonths,
		LaborWarrantyMonths:     p.LaborWarrantyMonths,
		WarrantyInfo:            p.WarrantyInfo,

		Description:        p.Description,
		PartsNeeded:        p.PartsNeeded,
		RepairPlan:         p.RepairPlan,
		AlternativeOptions: p.AlternativeOptions,

		EarliestAvailability: p.EarliestAvailability,
		CanProvideLoaner:     p.CanProvideLoaner,
		CanProvidePickup:     p.CanProvidePickup,
		AfterHoursService:    p.AfterHoursService,

		SubmittedByUserID: role.UserID,
		SubmittedByRole:   role.Role,
	}
}

func (s *BidService) publishBidEvent(eventType string, bid *models.Bid) {
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

func (s *BidService) notifyBidSubmitted(ctx context.Context, rfq *models.Rfq, bid *models.Bid) {
	payload := map[string]any{
		"rfq_id":        rfq.ID,
		"rfq_title":     rfq.Title,
		"bid_id":        bid.ID,
		"workshop_name": bid.WorkshopName,
		"quote_amount":  bid.QuoteAmount,
	}
	for _, recipient := range []string{rfq.CustomerID, rfq.MechanicID} {
		if err := s.notifier.Enqueue(ctx, recipient, events.EventBidSubmitted, payload); err != nil {
			s.logger.Error().Err(err).
				Str("bid_id", bid.ID).
				Str("recipient", recipient).
				Msg("failed to enqueue bid notification")
		}
	}
}

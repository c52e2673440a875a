package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wrenchbid/internal/database"
	"wrenchbid/internal/events"
	"wrenchbid/internal/models"
)

func newResolutionService(repo *mockRepo, referrals *mockReferrals, notifier *mockNotifier) *ResolutionService {
	return NewResolutionService(repo, referrals, events.NewEventBus(), notifier, 5.0, testLogger())
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	winner := &models.Bid{
		ID:                "bid-1",
		RfqID:             "rfq-1",
		WorkshopID:        "ws-1",
		WorkshopName:      "Main Street Auto",
		QuoteAmount:       850,
		SubmittedByUserID: "user-1",
		Status:            models.BidStatusAccepted,
	}
	loser := &models.Bid{
		ID:                "bid-2",
		RfqID:             "rfq-1",
		WorkshopID:        "ws-2",
		SubmittedByUserID: "user-2",
		Status:            models.BidStatusRejected,
	}

	t.Run("customer accepts and referral fee is recorded", func(t *testing.T) {
		repo := new(mockRepo)
		referrals := new(mockReferrals)
		notifier := new(mockNotifier)

		repo.On("GetRfq", ctx, "rfq-1").Return(openRfq(), nil)
		repo.On("AcceptBid", ctx, "rfq-1", "bid-1").Return(winner, []*models.Bid{loser}, nil)
		referrals.On("CreateReferralObligation", ctx, mock.MatchedBy(func(o *models.ReferralObligation) bool {
			return o.RfqID == "rfq-1" && o.BidID == "bid-1" &&
				o.MechanicID == "mech-1" && o.FeePercent == 5.0 && o.FeeAmount == 42.50
		})).Return(nil)
		notifier.On("Enqueue", ctx, "user-1", events.EventBidAccepted, mock.Anything).Return(nil)
		notifier.On("Enqueue", ctx, "mech-1", events.EventBidAccepted, mock.Anything).Return(nil)
		notifier.On("Enqueue", ctx, "user-2", events.EventBidRejected, mock.Anything).Return(nil)

		svc := newResolutionService(repo, referrals, notifier)
		got, err := svc.Accept(ctx, "rfq-1", "bid-1", "cust-1")
		require.NoError(t, err)
		assert.Equal(t, "bid-1", got.ID)

		referrals.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("originating mechanic may accept", func(t *testing.T) {
		repo := new(mockRepo)
		referrals := new(mockReferrals)
		notifier := new(mockNotifier)

		repo.On("GetRfq", ctx, "rfq-1").Return(openRfq(), nil)
		repo.On("AcceptBid", ctx, "rfq-1", "bid-1").Return(winner, nil, nil)
		referrals.On("CreateReferralObligation", ctx, mock.Anything).Return(nil)
		notifier.On("Enqueue", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		svc := newResolutionService(repo, referrals, notifier)
		got, err := svc.Accept(ctx, "rfq-1", "bid-1", "mech-1")
		require.NoError(t, err)
		assert.Equal(t, "bid-1", got.ID)
	})

	t.Run("strangers may not accept", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetRfq", ctx, "rfq-1").Return(openRfq(), nil)

		svc := newResolutionService(repo, new(mockReferrals), new(mockNotifier))
		_, err := svc.Accept(ctx, "rfq-1", "bid-1", "someone-else")
		assert.ErrorIs(t, err, ErrForbidden)
		repo.AssertNotCalled(t, "AcceptBid", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already resolved propagates", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetRfq", ctx, "rfq-1").Return(openRfq(), nil)
		repo.On("AcceptBid", ctx, "rfq-1", "bid-1").Return(nil, nil, database.ErrAlreadyResolved)

		svc := newResolutionService(repo, new(mockReferrals), new(mockNotifier))
		_, err := svc.Accept(ctx, "rfq-1", "bid-1", "cust-1")
		assert.ErrorIs(t, err, database.ErrAlreadyResolved)
	})

	t.Run("referral failure does not unwind the accept", func(t *testing.T) {
		repo := new(mockRepo)
		referrals := new(mockReferrals)
		notifier := new(mockNotifier)

		repo.On("GetRfq", ctx, "rfq-1").Return(openRfq(), nil)
		repo.On("AcceptBid", ctx, "rfq-1", "bid-1").Return(winner, nil, nil)
		referrals.On("CreateReferralObligation", ctx, mock.Anything).Return(assert.AnError)
		notifier.On("Enqueue", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		svc := newResolutionService(repo, referrals, notifier)
		got, err := svc.Accept(ctx, "rfq-1", "bid-1", "cust-1")
		require.NoError(t, err)
		assert.Equal(t, "bid-1", got.ID)
	})
}

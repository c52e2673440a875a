package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"wrenchbid/internal/database"
	"wrenchbid/internal/models"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateRfq(ctx context.Context, rfq *models.Rfq) error {
	return m.Called(ctx, rfq).Error(0)
}
func (m *mockRepo) GetRfq(ctx context.Context, id string) (*models.Rfq, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rfq), args.Error(1)
}
func (m *mockRepo) ListRfqs(ctx context.Context, f database.RfqFilter) ([]*models.Rfq, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Rfq), args.Error(1)
}
func (m *mockRepo) TransitionRfq(ctx context.Context, id string, from, to models.RfqStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}
func (m *mockRepo) CloseIfExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) ExpireDue(ctx context.Context, now time.Time) ([]*models.Rfq, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Rfq), args.Error(1)
}
func (m *mockRepo) CreateBid(ctx context.Context, bid *models.Bid) error {
	return m.Called(ctx, bid).Error(0)
}
func (m *mockRepo) GetBid(ctx context.Context, id string) (*models.Bid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}
func (m *mockRepo) ListBidsForRfq(ctx context.Context, rfqID string, f database.BidFilter) ([]*models.Bid, error) {
	args := m.Called(ctx, rfqID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bid), args.Error(1)
}
func (m *mockRepo) ListWorkshopBids(ctx context.Context, workshopID string, f database.BidFilter) ([]*models.Bid, error) {
	args := m.Called(ctx, workshopID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bid), args.Error(1)
}
func (m *mockRepo) HasLiveBid(ctx context.Context, rfqID, workshopID string) (bool, error) {
	args := m.Called(ctx, rfqID, workshopID)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) AcceptBid(ctx context.Context, rfqID, bidID string) (*models.Bid, []*models.Bid, error) {
	args := m.Called(ctx, rfqID, bidID)
	var winner *models.Bid
	if args.Get(0) != nil {
		winner = args.Get(0).(*models.Bid)
	}
	var rejected []*models.Bid
	if args.Get(1) != nil {
		rejected = args.Get(1).([]*models.Bid)
	}
	return winner, rejected, args.Error(2)
}
func (m *mockRepo) RecordView(ctx context.Context, rfqID, workshopID string) error {
	return m.Called(ctx, rfqID, workshopID).Error(0)
}
func (m *mockRepo) GetView(ctx context.Context, rfqID, workshopID string) (*models.WorkshopRfqView, error) {
	args := m.Called(ctx, rfqID, workshopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkshopRfqView), args.Error(1)
}
func (m *mockRepo) CountViews(ctx context.Context, rfqID string) (int, error) {
	args := m.Called(ctx, rfqID)
	return args.Int(0), args.Error(1)
}

type mockRoles struct {
	mock.Mock
}

func (m *mockRoles) GetRole(ctx context.Context, workshopID, userID string) (*models.WorkshopRole, error) {
	args := m.Called(ctx, workshopID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkshopRole), args.Error(1)
}

type mockReputation struct {
	mock.Mock
}

func (m *mockReputation) GetWorkshop(ctx context.Context, id string) (*models.Workshop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workshop), args.Error(1)
}

type mockReferrals struct {
	mock.Mock
}

func (m *mockReferrals) CreateReferralObligation(ctx context.Context, o *models.ReferralObligation) error {
	return m.Called(ctx, o).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Enqueue(ctx context.Context, recipientID, eventType string, payload any) error {
	return m.Called(ctx, recipientID, eventType, payload).Error(0)
}

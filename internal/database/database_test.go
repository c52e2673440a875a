package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrenchbid/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRfq(deadline time.Time, maxBids int) *models.Rfq {
	return &models.Rfq{
		ID:            uuid.NewString(),
		Title:         "Brake pads and rotors",
		Description:   "Grinding noise when braking, front axle",
		IssueCategory: "brakes",
		Urgency:       models.UrgencyMedium,
		VehicleMake:   "Toyota",
		VehicleModel:  "Corolla",
		VehicleYear:   2019,
		CustomerCity:  "Calgary",
		CustomerID:    "cust-1",
		MechanicID:    "mech-1",
		MaxBids:       maxBids,
		BidDeadline:   deadline,
	}
}

func testBid(rfqID, workshopID string) *models.Bid {
	return &models.Bid{
		ID:                uuid.NewString(),
		RfqID:             rfqID,
		WorkshopID:        workshopID,
		WorkshopName:      "Shop " + workshopID,
		WorkshopCity:      "Calgary",
		WorkshopRating:    4.5,
		QuoteAmount:       850.00,
		PartsCost:         500.00,
		LaborCost:         350.00,
		Description:       "Replace front pads and rotors, OEM parts, road test included.",
		SubmittedByUserID: "user-" + workshopID,
		SubmittedByRole:   models.RoleOwner,
	}
}

func TestCreateAndGetRfq(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rfq := testRfq(time.Now().Add(24*time.Hour), 5)
	rfq.RequiredCertifications = models.StringSet{"red-seal"}
	require.NoError(t, db.CreateRfq(ctx, rfq))

	got, err := db.GetRfq(ctx, rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, rfq.Title, got.Title)
	assert.Equal(t, models.RfqStatusOpen, got.Status)
	assert.Equal(t, 0, got.BidCount)
	assert.Equal(t, models.StringSet{"red-seal"}, got.RequiredCertifications)

	_, err = db.GetRfq(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRfqsFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	deadline := time.Now().Add(24 * time.Hour)

	brakes := testRfq(deadline, 5)
	require.NoError(t, db.CreateRfq(ctx, brakes))

	engine := testRfq(deadline, 5)
	engine.IssueCategory = "engine"
	engine.Urgency = models.UrgencyHigh
	max := 300.0
	engine.BudgetMax = &max
	require.NoError(t, db.CreateRfq(ctx, engine))

	all, err := db.ListRfqs(ctx, RfqFilter{Status: models.RfqStatusOpen})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyEngine, err := db.ListRfqs(ctx, RfqFilter{IssueCategory: "engine"})
	require.NoError(t, err)
	require.Len(t, onlyEngine, 1)
	assert.Equal(t, engine.ID, onlyEngine[0].ID)

	// Budget filter: the engine RFQ caps at 300, so asking for jobs
	// worth at least 500 must drop it.
	min := 500.0
	rich, err := db.ListRfqs(ctx, RfqFilter{BudgetMin: &min})
	require.NoError(t, err)
	require.Len(t, rich, 1)
	assert.Equal(t, brakes.ID, rich[0].ID)

	// A workshop with a live bid on the brakes RFQ stops seeing it.
	require.NoError(t, db.CreateBid(ctx, testBid(brakes.ID, "ws-1")))
	fresh, err := db.ListRfqs(ctx, RfqFilter{HideAlreadyBid: "ws-1"})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, engine.ID, fresh[0].ID)
}

func TestTransitionRfq(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rfq := testRfq(time.Now().Add(time.Hour), 5)
	require.NoError(t, db.CreateRfq(ctx, rfq))

	require.NoError(t, db.TransitionRfq(ctx, rfq.ID, models.RfqStatusOpen, models.RfqStatusCancelled))

	got, err := db.GetRfq(ctx, rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RfqStatusCancelled, got.Status)

	// Repeating the transition hits a terminal row.
	err = db.TransitionRfq(ctx, rfq.ID, models.RfqStatusOpen, models.RfqStatusCancelled)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// A transition the table does not allow is refused up front.
	err = db.TransitionRfq(ctx, rfq.ID, models.RfqStatusCancelled, models.RfqStatusOpen)
	assert.ErrorIs(t, err, ErrInvalidState)

	err = db.TransitionRfq(ctx, "missing", models.RfqStatusOpen, models.RfqStatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpireDue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	past := testRfq(now.Add(-time.Minute), 5)
	require.NoError(t, db.CreateRfq(ctx, past))
	future := testRfq(now.Add(time.Hour), 5)
	require.NoError(t, db.CreateRfq(ctx, future))

	expired, err := db.ExpireDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, past.ID, expired[0].ID)
	assert.Equal(t, models.RfqStatusExpired, expired[0].Status)

	stillOpen, err := db.GetRfq(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RfqStatusOpen, stillOpen.Status)

	// Second sweep finds nothing; expiry is idempotent.
	again, err := db.ExpireDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestWorkshopRoles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ws := &models.Workshop{ID: "ws-1", Name: "Main Street Auto", City: "Calgary", Rating: 4.2, ReviewCount: 37, Active: true}
	require.NoError(t, db.CreateWorkshop(ctx, ws))

	role := &models.WorkshopRole{WorkshopID: "ws-1", UserID: "user-1", Role: models.RoleServiceAdvisor, CanSendQuotes: true}
	require.NoError(t, db.UpsertRole(ctx, role))

	got, err := db.GetRole(ctx, "ws-1", "user-1")
	require.NoError(t, err)
	assert.True(t, got.MayQuote())

	// Revoking the quoting flag via upsert takes effect.
	role.CanSendQuotes = false
	require.NoError(t, db.UpsertRole(ctx, role))
	got, err = db.GetRole(ctx, "ws-1", "user-1")
	require.NoError(t, err)
	assert.False(t, got.MayQuote())

	_, err = db.GetRole(ctx, "ws-1", "stranger")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateWorkshopRatingLeavesSnapshots(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ws := &models.Workshop{ID: "ws-1", Name: "Main Street Auto", Rating: 4.5, ReviewCount: 10, Active: true}
	require.NoError(t, db.CreateWorkshop(ctx, ws))

	rfq := testRfq(time.Now().Add(time.Hour), 5)
	require.NoError(t, db.CreateRfq(ctx, rfq))
	bid := testBid(rfq.ID, "ws-1")
	require.NoError(t, db.CreateBid(ctx, bid))

	require.NoError(t, db.UpdateWorkshopRating(ctx, "ws-1", 2.1, 11))

	live, err := db.GetWorkshop(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, 2.1, live.Rating)

	frozen, err := db.GetBid(ctx, bid.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, frozen.WorkshopRating)
}

func TestReferralObligationIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rfq := testRfq(time.Now().Add(time.Hour), 5)
	require.NoError(t, db.CreateRfq(ctx, rfq))
	bid := testBid(rfq.ID, "ws-1")
	require.NoError(t, db.CreateBid(ctx, bid))

	o := &models.ReferralObligation{
		ID:          uuid.NewString(),
		RfqID:       rfq.ID,
		BidID:       bid.ID,
		MechanicID:  rfq.MechanicID,
		WorkshopID:  "ws-1",
		QuoteAmount: 850.00,
		FeePercent:  5.0,
		FeeAmount:   42.50,
	}
	require.NoError(t, db.CreateReferralObligation(ctx, o))

	dup := *o
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, db.CreateReferralObligation(ctx, &dup), ErrDuplicateReferral)

	got, err := db.GetReferralByRfq(ctx, rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, "recorded", got.Status)
}

func TestNotificationOutboxLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n := &models.Notification{RecipientID: "cust-1", EventType: "bid_submitted", Payload: `{"rfq_id":"r1"}`}
	require.NoError(t, db.CreateNotification(ctx, n))
	require.NotZero(t, n.ID)

	pending, err := db.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// A retry scheduled in the future is not due yet.
	require.NoError(t, db.MarkNotificationRetry(ctx, n.ID, 1, "sink unavailable", time.Now().Add(time.Minute)))
	pending, err = db.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Once the backoff elapses it shows up again.
	require.NoError(t, db.MarkNotificationRetry(ctx, n.ID, 2, "sink unavailable", time.Now().Add(-time.Second)))
	pending, err = db.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)

	require.NoError(t, db.MarkNotificationCompleted(ctx, n.ID))
	pending, err = db.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	dead := &models.Notification{RecipientID: "cust-1", EventType: "bid_accepted", Payload: `{}`}
	require.NoError(t, db.CreateNotification(ctx, dead))
	require.NoError(t, db.MarkNotificationDead(ctx, dead.ID, "gave up"))
	pending, err = db.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wrenchbid/internal/database"
	"wrenchbid/internal/metrics"
	"wrenchbid/internal/models"
)

// Dispatcher moves notifications from the durable outbox to a Sink.
// Enqueue persists first, then hands the row to redis or the in-memory
// channel for low-latency pickup; the DB poll loop catches anything
// both fast paths dropped. Losing redis therefore degrades latency,
// never delivery.
type Dispatcher struct {
	db            *database.DB
	sink          Sink
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.Notification
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        zerolog.Logger
}

func NewDispatcher(db *database.DB, sink Sink, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *Dispatcher {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "dispatcher").Logger()
	}

	return &Dispatcher{
		db:            db,
		sink:          sink,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.Notification, models.NotificationQueueSize),
		redisQueueKey: "notify:queue",
		deadLetterKey: "notify:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        base,
	}
}

// Enqueue persists the notification and schedules it for delivery.
// Implements domain.Notifier.
func (d *Dispatcher) Enqueue(ctx context.Context, recipientID, eventType string, payload any) error {
	if recipientID == "" || eventType == "" {
		return errors.New("recipient and event type are required")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	n := models.Notification{
		RecipientID: recipientID,
		EventType:   eventType,
		Payload:     string(raw),
		Status:      models.NotificationStatusPending,
	}
	if err := d.db.CreateNotification(ctx, &n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if d.redis != nil {
		if err := d.pushRedis(ctx, n); err != nil {
			d.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case d.queue <- n:
	default:
		d.logger.Warn().Int64("notification_id", n.ID).Msg("memory queue full, row left for polling")
	}

	return nil
}

// Start launches the delivery loop; stops when ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info().Msg("dispatcher started")
	defer d.logger.Info().Msg("dispatcher stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if n, ok := d.tryLocalQueue(); ok {
			d.process(ctx, &n)
			continue
		}

		if n, ok := d.tryRedis(ctx); ok {
			d.process(ctx, &n)
			continue
		}

		pending, err := d.db.PendingNotifications(ctx, d.batchSize)
		if err != nil {
			d.logger.Error().Err(err).Msg("fetch pending notifications")
			d.sleep(ctx)
			continue
		}
		if len(pending) == 0 {
			d.sleep(ctx)
			continue
		}

		for _, n := range pending {
			d.process(ctx, n)
		}
	}
}

func (d *Dispatcher) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(d.pollInterval):
	}
}

func (d *Dispatcher) tryLocalQueue() (models.Notification, bool) {
	select {
	case n := <-d.queue:
		return n, true
	default:
		return models.Notification{}, false
	}
}

func (d *Dispatcher) tryRedis(ctx context.Context) (models.Notification, bool) {
	if d.redis == nil {
		return models.Notification{}, false
	}
	res, err := d.redis.BRPop(ctx, time.Second, d.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.Notification{}, false
		}
		d.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.Notification{}, false
	}
	if len(res) != 2 {
		return models.Notification{}, false
	}
	var n models.Notification
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		d.logger.Error().Err(err).Msg("decode redis notification")
		return models.Notification{}, false
	}
	return n, true
}

func (d *Dispatcher) process(ctx context.Context, n *models.Notification) {
	if err := d.sink.Deliver(ctx, n); err != nil {
		d.retryOrFail(ctx, n, err)
		return
	}

	metrics.IncNotification("delivered")
	if err := d.db.MarkNotificationCompleted(ctx, n.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
		d.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("mark completed")
	}
}

func (d *Dispatcher) retryOrFail(ctx context.Context, n *models.Notification, cause error) {
	attempt := n.RetryCount + 1
	if attempt >= d.retryPolicy.MaxRetries {
		if err := d.db.MarkNotificationDead(ctx, n.ID, cause.Error()); err != nil {
			d.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("mark dead")
		}
		d.pushDeadLetter(ctx, n)
		metrics.IncNotification("dead")
		return
	}

	metrics.IncNotification("retry")
	nextTime := time.Now().Add(d.retryPolicy.NextDelay(attempt))
	if err := d.db.MarkNotificationRetry(ctx, n.ID, attempt, cause.Error(), nextTime); err != nil {
		d.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("mark retry")
	}
}

func (d *Dispatcher) pushRedis(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return d.redis.LPush(ctx, d.redisQueueKey, data).Err()
}

func (d *Dispatcher) pushDeadLetter(ctx context.Context, n *models.Notification) {
	if d.redis == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		d.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("encode deadletter")
		return
	}
	if err := d.redis.LPush(ctx, d.deadLetterKey, data).Err(); err != nil {
		d.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("deadletter push")
	}
}

package notify

import (
	"context"

	"github.com/rs/zerolog"

	"wrenchbid/internal/models"
)

// Sink delivers one notification to its recipient. Implementations
// wrap email, push or webhook providers; a returned error triggers
// the dispatcher's retry schedule.
type Sink interface {
	Deliver(ctx context.Context, n *models.Notification) error
}

// LogSink writes notifications to the log. It stands in until a real
// delivery channel is configured and is useful in development.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger *zerolog.Logger) *LogSink {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "notify").Logger()
	}
	return &LogSink{logger: base}
}

func (s *LogSink) Deliver(_ context.Context, n *models.Notification) error {
	s.logger.Info().
		Int64("notification_id", n.ID).
		Str("recipient_id", n.RecipientID).
		Str("event_type", n.EventType).
		RawJSON("payload", []byte(n.Payload)).
		Msg("notification delivered")
	return nil
}

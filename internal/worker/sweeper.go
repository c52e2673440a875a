package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ExpirySweep is implemented by the RFQ lifecycle service.
type ExpirySweep interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper periodically closes RFQs whose bid deadline passed. Reads
// also expire lazily, so the sweeper's job is to bound how long a
// dead RFQ can sit unnoticed, not to be the only expiry path.
type Sweeper struct {
	svc      ExpirySweep
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(svc ExpirySweep, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "sweeper").Logger()
	}
	return &Sweeper{svc: svc, interval: interval, logger: base}
}

// Start runs the sweep loop until ctx is cancelled. One sweep runs
// immediately so a restart does not wait a full interval to catch up.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("sweeper started")
	defer s.logger.Info().Msg("sweeper stopped")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.SweepExpired(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int("expired", n).Msg("expired overdue rfqs")
	}
}

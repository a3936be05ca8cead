package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicedit/internal/ratelimit"
)

// LimiterSweeper periodically drops rate-limit entries whose windows have
// all elapsed, so memory tracks active clients only.
type LimiterSweeper struct {
	Limiter  *ratelimit.Limiter
	Interval time.Duration
	Logger   *logrus.Logger
}

// Start launches the sweep loop; it stops when ctx is cancelled.
func (s *LimiterSweeper) Start(ctx context.Context) error {
	if s.Limiter == nil {
		return errors.New("LimiterSweeper missing dependency: Limiter must be set")
	}
	if s.Interval <= 0 {
		s.Interval = 10 * time.Minute
	}
	if s.Logger == nil {
		s.Logger = logrus.New()
	}

	go s.run(ctx)
	return nil
}

func (s *LimiterSweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *LimiterSweeper) sweepOnce() int {
	removed := s.Limiter.Sweep()
	if removed > 0 {
		s.Logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": s.Limiter.Len(),
		}).Debug("rate limit entries swept")
	}
	return removed
}

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type shareExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// ShareSweeper periodically closes split payments that ran past their deadline.
type ShareSweeper struct {
	shares   shareExpirer
	interval time.Duration
	logger   *slog.Logger
}

func NewShareSweeper(shares shareExpirer, interval time.Duration, logger *slog.Logger) *ShareSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ShareSweeper{
		shares:   shares,
		interval: interval,
		logger:   logger,
	}
}

// Start blocks until ctx is done.
func (s *ShareSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("share sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("share sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ShareSweeper) tick(ctx context.Context) {
	n, err := s.shares.ExpireOverdue(ctx)
	if err != nil {
		s.logger.Error("failed to expire shared reservations", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("shared reservations expired", "count", n)
	}
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package services

import (
	"context"
	"errors"
	"time"

	"github.com/josuejero/ReelSwipe/internal/metrics"
	"github.com/rs/zerolog"
)

const day = 24 * time.Hour

// Pruner deletes rows older than a cutoff. Implemented by *database.DB.
type Pruner interface {
	PruneRequestLogs(ctx context.Context, cutoff time.Time) (int64, error)
	PruneSwipeEvents(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionConfig holds configuration for the retention service.
type RetentionConfig struct {
	// RequestLogDays is how long request_logs rows are kept. 0 disables pruning.
	RequestLogDays int

	// SwipeEventDays is how long swipe_events rows are kept. 0 keeps them forever.
	SwipeEventDays int

	// Interval between pruning passes. Defaults to one hour.
	Interval time.Duration
}

// RetentionService prunes request_logs and, optionally, swipe_events on a
// fixed schedule. The first pass runs immediately on start.
type RetentionService struct {
	pruner Pruner
	config RetentionConfig
	logger zerolog.Logger
	now    func() time.Time
	name   string
}

// NewRetentionService creates a new retention service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetentionService(pruner Pruner, cfg RetentionConfig, logger zerolog.Logger) *RetentionService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &RetentionService{
		pruner: pruner,
		config: cfg,
		logger: logger.With().Str("service", "retention").Logger(),
		now:    time.Now,
		name:   "retention",
	}
}

// Serve implements the suture.Service interface.
func (s *RetentionService) Serve(ctx context.Context) error {
	s.logger.Info().
		Int("request_log_days", s.config.RequestLogDays).
		Int("swipe_event_days", s.config.SwipeEventDays).
		Dur("interval", s.config.Interval).
		Msg("retention service starting")

	s.prune(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retention service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.prune(ctx)
		}
	}
}

// prune runs one pass. Failures are logged and retried on the next tick.
func (s *RetentionService) prune(ctx context.Context) {
	now := s.now()

	if s.config.RequestLogDays > 0 {
		cutoff := now.Add(-time.Duration(s.config.RequestLogDays) * day)
		n, err := s.pruner.PruneRequestLogs(ctx, cutoff)
		s.report("request_logs", n, err)
	}
	if s.config.SwipeEventDays > 0 {
		cutoff := now.Add(-time.Duration(s.config.SwipeEventDays) * day)
		n, err := s.pruner.PruneSwipeEvents(ctx, cutoff)
		s.report("swipe_events", n, err)
	}
}

func (s *RetentionService) report(table string, n int64, err error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn().Err(err).Str("table", table).Msg("retention prune failed")
		return
	}
	metrics.RecordRetentionPrune(table, n)
	if n > 0 {
		s.logger.Info().Str("table", table).Int64("rows", n).Msg("pruned expired rows")
	}
}

// String returns the service name for logging.
func (s *RetentionService) String() string {
	return s.name
}

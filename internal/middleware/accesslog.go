// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package middleware

import (
	"context"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/josuejero/ReelSwipe/internal/database"
	"github.com/josuejero/ReelSwipe/internal/logging"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RequestLogSink persists sampled request logs.
type RequestLogSink interface {
	RecordRequestLog(ctx context.Context, r database.RequestLog) error
}

// AccessLogConfig controls access logging and request log persistence.
type AccessLogConfig struct {
	// SampleRate is the fraction of requests persisted (0..1).
	SampleRate float64

	// MaxPerSecond caps persisted rows; 0 means unlimited.
	MaxPerSecond float64

	// WriteTimeout bounds each background insert. Defaults to 2s.
	WriteTimeout time.Duration

	// SkipPaths are never persisted. Defaults to /health.
	SkipPaths []string
}

// AccessLogger logs every request and persists a sampled subset.
type AccessLogger struct {
	cfg     AccessLogConfig
	sink    RequestLogSink
	logger  zerolog.Logger
	limiter *rate.Limiter
	skip    map[string]struct{}
	sample  func() float64

	wg sync.WaitGroup
}

// NewAccessLogger creates an AccessLogger. A nil sink disables persistence.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAccessLogger(cfg AccessLogConfig, sink RequestLogSink, logger zerolog.Logger) *AccessLogger {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	if cfg.SkipPaths == nil {
		cfg.SkipPaths = []string{"/health"}
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	var limiter *rate.Limiter
	if cfg.MaxPerSecond > 0 {
		burst := max(1, int(cfg.MaxPerSecond))
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxPerSecond), burst)
	}

	return &AccessLogger{
		cfg:     cfg,
		sink:    sink,
		logger:  logger.With().Str("component", "http").Logger(),
		limiter: limiter,
		skip:    skip,
		sample:  rand.Float64,
	}
}

// Handler is the middleware.
func (a *AccessLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := wrap(w, r)

		next.ServeHTTP(ww, r)

		dur := time.Since(start)
		rec := database.RequestLog{
			ReqID:  logging.RequestIDFromContext(r.Context()),
			Route:  RouteKey(r.Method, r.URL.Path),
			Method: r.Method,
			Path:   r.URL.Path,
			Status: statusOf(ww),
			DurMs:  dur.Milliseconds(),
			TsMs:   start.UnixMilli(),
		}

		ev := a.logger.Info()
		if rec.Status >= http.StatusInternalServerError {
			ev = a.logger.Error()
		}
		ev.Str("req_id", rec.ReqID).
			Str("route", rec.Route).
			Str("method", rec.Method).
			Str("path", rec.Path).
			Int("status", rec.Status).
			Int64("dur_ms", rec.DurMs).
			Msg("request")

		if a.shouldPersist(rec.Path) {
			a.persist(rec)
		}
	})
}

// Wait blocks until in-flight request log writes finish.
func (a *AccessLogger) Wait() {
	a.wg.Wait()
}

func (a *AccessLogger) shouldPersist(path string) bool {
	if a.sink == nil {
		return false
	}
	if _, ok := a.skip[path]; ok {
		return false
	}
	switch {
	case a.cfg.SampleRate <= 0:
		return false
	case a.cfg.SampleRate < 1 && a.sample() >= a.cfg.SampleRate:
		return false
	}
	return a.limiter == nil || a.limiter.Allow()
}

// persist writes in the background so the response is not delayed.
func (a *AccessLogger) persist(rec database.RequestLog) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.WriteTimeout)
		defer cancel()
		if err := a.sink.RecordRequestLog(ctx, rec); err != nil {
			a.logger.Warn().Err(err).Str("req_id", rec.ReqID).Msg("request log write failed")
		}
	}()
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// DeckRoute is the request_logs route key of deck builds.
const DeckRoute = "GET /v1/deck"

// WindowMetrics are the activity totals of a trailing time window.
type WindowMetrics struct {
	WindowMs    int64    `json:"window_ms"`
	SinceMs     int64    `json:"since_ms"`
	Swipes      int64    `json:"swipes"`
	Likes       int64    `json:"likes"`
	Skips       int64    `json:"skips"`
	Impressions int64    `json:"impressions"`
	LikeRate    *float64 `json:"like_rate"`
	SkipRate    *float64 `json:"skip_rate"`
	P50DeckMs   *int64   `json:"p50_deck_ms"`
}

// RequestLog is one sampled API request.
type RequestLog struct {
	ReqID  string
	Route  string
	Method string
	Path   string
	Status int
	DurMs  int64
	TsMs   int64
}

// WindowMetrics returns swipe, impression and deck latency totals for the
// trailing window. Rates are nil when there were no swipes; the median is
// nil when no deck request was logged.
func (db *DB) WindowMetrics(ctx context.Context, window time.Duration) (m *WindowMetrics, err error) {
	defer db.observe("window_metrics", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	since := db.now().Add(-window).UnixMilli()
	m = &WindowMetrics{WindowMs: window.Milliseconds(), SinceMs: since}

	err = db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE action = 'like'),
			COUNT(*) FILTER (WHERE action = 'skip')
		FROM swipe_events
		WHERE ts_ms >= $1`, since).Scan(&m.Swipes, &m.Likes, &m.Skips)
	if err != nil {
		return nil, fmt.Errorf("count swipes: %w", err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recommendation_impressions WHERE ts_ms >= $1`, since).Scan(&m.Impressions)
	if err != nil {
		return nil, fmt.Errorf("count impressions: %w", err)
	}

	if m.Swipes > 0 {
		like := float64(m.Likes) / float64(m.Swipes)
		skip := float64(m.Skips) / float64(m.Swipes)
		m.LikeRate, m.SkipRate = &like, &skip
	}

	var p50 sql.NullFloat64
	err = db.conn.QueryRowContext(ctx, `
		SELECT quantile_cont(CAST(dur_ms AS DOUBLE), 0.5)
		FROM request_logs
		WHERE ts_ms >= $1 AND route = $2`, since, DeckRoute).Scan(&p50)
	if err != nil {
		return nil, fmt.Errorf("deck latency median: %w", err)
	}
	if p50.Valid {
		v := int64(math.Round(p50.Float64))
		m.P50DeckMs = &v
	}
	return m, nil
}

// RecordRequestLog stores one request timing under a fresh id.
func (db *DB) RecordRequestLog(ctx context.Context, r RequestLog) (err error) {
	defer db.observe("record_request_log", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO request_logs (id, req_id, route, method, path, status, dur_ms, ts_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), r.ReqID, r.Route, r.Method, r.Path, r.Status, r.DurMs, r.TsMs)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	return nil
}

// PruneRequestLogs deletes request logs older than cutoff.
func (db *DB) PruneRequestLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	return db.pruneBefore(ctx, "prune_request_logs", `DELETE FROM request_logs WHERE ts_ms < $1`, cutoff)
}

// PruneSwipeEvents deletes swipes older than cutoff.
func (db *DB) PruneSwipeEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	return db.pruneBefore(ctx, "prune_swipe_events", `DELETE FROM swipe_events WHERE ts_ms < $1`, cutoff)
}

func (db *DB) pruneBefore(ctx context.Context, operation, query string, cutoff time.Time) (n int64, err error) {
	defer db.observe(operation, time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", operation, err)
	}
	return n, nil
}

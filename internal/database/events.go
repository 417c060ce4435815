// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/josuejero/ReelSwipe/internal/metrics"
	"github.com/josuejero/ReelSwipe/internal/recommend"
)

var _ recommend.ImpressionStore = (*DB)(nil)

// RecordImpressions inserts rows that are not already stored and returns the
// number of rows actually written. All rows go in one transaction.
func (db *DB) RecordImpressions(ctx context.Context, rows []recommend.Impression) (written int, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	defer db.observe("record_impressions", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var inserted []string
	err = db.withTxRetry(ctx, "record_impressions", func(tx *sql.Tx) error {
		written, inserted = 0, inserted[:0]

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recommendation_impressions (
				impression_id, deck_id, session_id, movie_id, rank, reason_code,
				model_version, score, ts_ms, request_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT DO NOTHING`)
		if err != nil {
			return fmt.Errorf("prepare impression insert: %w", err)
		}
		defer closeWithLog(stmt, "statement")

		for i := range rows {
			r := &rows[i]
			res, err := stmt.ExecContext(ctx,
				r.ImpressionID, r.DeckID, r.SessionID, r.MovieID, r.Rank, r.ReasonCode,
				nullString(r.ModelVersion), r.Score, r.TsMs, nullString(r.RequestID))
			if err != nil {
				return fmt.Errorf("insert impression %s: %w", r.ImpressionID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 { //nolint:errcheck // duckdb always reports rows affected
				written += int(n)
				inserted = append(inserted, r.ReasonCode)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, reason := range inserted {
		metrics.RecordImpression(reason)
	}
	return written, nil
}

// RecordSwipe inserts a swipe unless its event id is already stored.
// It reports whether the row was new.
func (db *DB) RecordSwipe(ctx context.Context, e recommend.SwipeEvent) (inserted bool, err error) {
	if e.EventID == "" {
		return false, errors.New("event_id is required")
	}
	if !e.Action.Valid() {
		return false, fmt.Errorf("invalid action %q", e.Action)
	}
	defer db.observe("record_swipe", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var dwell sql.NullInt64
	if e.DwellMs != nil {
		dwell = sql.NullInt64{Int64: *e.DwellMs, Valid: true}
	}

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO swipe_events (
			event_id, session_id, deck_id, movie_id, action, ts_ms, dwell_ms, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING`,
		e.EventID, e.SessionID, e.DeckID, e.MovieID, string(e.Action), e.TsMs, dwell, nullString(e.RequestID))
	if err != nil {
		return false, fmt.Errorf("insert swipe %s: %w", e.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swipe rows affected: %w", err)
	}
	if n > 0 {
		metrics.RecordSwipe(string(e.Action))
	}
	return n > 0, nil
}

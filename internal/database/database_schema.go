// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

/*
database_schema.go - Database Schema Management

Tables:
  - movies: catalog entries
  - tmdb_genres: genre id to name
  - movie_genres: one row per (movie, genre), position keeps catalog order
  - swipe_events: append-only likes and skips, keyed by event_id
  - recommendation_impressions: one row per movie shown per deck
  - cf_item_neighbors: item-item neighbor lists, keyed by model_version
  - model_versions: registry of trained models
  - app_meta: key/value pointers such as current_model_version
  - request_logs: sampled API request timings

Link and neighbor tables carry no unique constraint. They are rewritten with
DELETE then INSERT inside one transaction, and uniqueness is enforced by the
writers.

Index Strategy:
Indexes cover the per-session lookups of deck building, the time windows of
metrics and retention, and the per-version neighbor lookup of CF retrieval.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// createIndexes creates the secondary indexes
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		movie_id TEXT PRIMARY KEY,
		tmdb_id BIGINT,
		title TEXT NOT NULL,
		year INTEGER,
		poster_url TEXT,
		source TEXT NOT NULL DEFAULT 'organic',
		created_at_ms BIGINT NOT NULL,
		updated_at_ms BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tmdb_genres (
		genre_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		updated_at_ms BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS movie_genres (
		movie_id TEXT NOT NULL,
		genre_id INTEGER NOT NULL,
		position INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS swipe_events (
		event_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		deck_id TEXT NOT NULL,
		movie_id TEXT NOT NULL,
		action TEXT NOT NULL CHECK (action IN ('like', 'skip')),
		ts_ms BIGINT NOT NULL,
		dwell_ms BIGINT,
		request_id TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_impressions (
		impression_id TEXT PRIMARY KEY,
		deck_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		movie_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		reason_code TEXT NOT NULL,
		model_version TEXT,
		score DOUBLE,
		ts_ms BIGINT NOT NULL,
		request_id TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS cf_item_neighbors (
		model_version TEXT NOT NULL,
		movie_id TEXT NOT NULL,
		neighbor_movie_id TEXT NOT NULL,
		score DOUBLE NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS model_versions (
		model_version TEXT PRIMARY KEY,
		created_at_ms BIGINT NOT NULL,
		snapshot_id TEXT,
		algo TEXT NOT NULL,
		params_json TEXT,
		metrics_json TEXT,
		notes TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS app_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS request_logs (
		id TEXT PRIMARY KEY,
		req_id TEXT NOT NULL,
		route TEXT NOT NULL,
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		status INTEGER NOT NULL,
		dur_ms BIGINT NOT NULL,
		ts_ms BIGINT NOT NULL
	)`,
}

var indexCreationQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_swipe_session ON swipe_events(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_swipe_ts ON swipe_events(ts_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_swipe_movie ON swipe_events(movie_id)`,
	`CREATE INDEX IF NOT EXISTS idx_impressions_session ON recommendation_impressions(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_impressions_ts ON recommendation_impressions(ts_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_movie_genres_movie ON movie_genres(movie_id)`,
	`CREATE INDEX IF NOT EXISTS idx_movie_genres_genre ON movie_genres(genre_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cf_neighbors_version_movie ON cf_item_neighbors(model_version, movie_id)`,
	`CREATE INDEX IF NOT EXISTS idx_request_logs_ts ON request_logs(ts_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_request_logs_route_ts ON request_logs(route, ts_ms)`,
}

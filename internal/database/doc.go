// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package database is the DuckDB store behind deck serving and the offline
// tooling.
//
// # Overview
//
// DB implements the store interfaces of the recommendation core
// (retrieval.Store, recommend.DataProvider and recommend.ImpressionStore)
// plus the model registry, session profiles, window metrics, request logs,
// retention pruning and snapshot export.
//
// # Architecture
//
// Core Database Operations:
//   - database.go: connection lifecycle and schema initialization
//   - database_schema.go: table and index definitions
//   - database_connection.go: pool settings and transaction retry
//   - database_utils.go: profiling, query timeouts, instrumentation, table counts
//
// Recommendation Queries:
//   - retrieval.go: candidate buckets (popular-recent, genre-match, explore, CF)
//   - deck_data.go: model pointer, genre lookups, genre preferences, baseline pool
//   - events.go: idempotent impression and swipe writes
//   - models.go: model registry, neighbor replacement and promotion
//
// Supporting Operations:
//   - catalog.go: movie, genre and movie-genre upserts
//   - profile.go: per-session summary
//   - observability.go: window metrics, request logs and retention pruning
//   - export.go: concurrent snapshot export
//
// # Seen Set
//
// Every retrieval bucket excludes the session's seen set: every movie that
// appears in its impressions or its swipes. A movie is never shown twice to
// the same session.
//
// # Idempotency
//
// Impressions and swipes are inserted with ON CONFLICT DO NOTHING on their
// primary key. Retried writes are no-ops and report zero rows written.
//
// # Thread Safety
//
// DB is safe for concurrent use. Calls whose context has no deadline are
// bounded by the configured query timeout (10s by default). Loads of the same
// model version are serialized in-process and run in a single transaction.
//
// # Usage Example
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	version, err := db.CurrentModelVersion(ctx, recommend.DefaultModelVersion)
//	cands, err := db.CFNeighbors(ctx, sessionID, version, liked, cutoff, 200)
package database

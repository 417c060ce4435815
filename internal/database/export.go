// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/josuejero/ReelSwipe/internal/recommend/storage"
	"golang.org/x/sync/errgroup"
)

// ExportSnapshot reads the snapshot tables concurrently. Impressions are
// included only when withImpressions is set. The caller persists the result
// with storage.Store.WriteSnapshot.
//
// Exports run without the per-query timeout; bound them with ctx.
func (db *DB) ExportSnapshot(ctx context.Context, snapshotID string, withImpressions bool) (snap *storage.Snapshot, err error) {
	defer db.observe("export_snapshot", time.Now(), &err)

	snap = &storage.Snapshot{Manifest: storage.Manifest{SnapshotID: snapshotID}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := db.exportSwipes(gctx)
		snap.Swipes = rows
		return err
	})
	g.Go(func() error {
		rows, err := db.exportMovies(gctx)
		snap.Movies = rows
		return err
	})
	g.Go(func() error {
		rows, err := db.exportMovieGenres(gctx)
		snap.MovieGenres = rows
		return err
	})
	g.Go(func() error {
		rows, err := db.exportGenres(gctx)
		snap.Genres = rows
		return err
	})
	if withImpressions {
		g.Go(func() error {
			rows, err := db.exportImpressions(gctx)
			if rows == nil {
				rows = []recommend.Impression{}
			}
			snap.Impressions = rows
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export snapshot %s: %w", snapshotID, err)
	}
	return snap, nil
}

func (db *DB) exportSwipes(ctx context.Context) ([]recommend.SwipeEvent, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT event_id, session_id, deck_id, movie_id, action, ts_ms, dwell_ms, request_id
		FROM swipe_events
		ORDER BY ts_ms, event_id`)
	if err != nil {
		return nil, fmt.Errorf("query swipe_events: %w", err)
	}
	defer rows.Close()

	var out []recommend.SwipeEvent
	for rows.Next() {
		var e recommend.SwipeEvent
		var action string
		var dwell sql.NullInt64
		var reqID sql.NullString
		if err := rows.Scan(&e.EventID, &e.SessionID, &e.DeckID, &e.MovieID, &action, &e.TsMs, &dwell, &reqID); err != nil {
			return nil, fmt.Errorf("scan swipe: %w", err)
		}
		e.Action = recommend.Action(action)
		if dwell.Valid {
			d := dwell.Int64
			e.DwellMs = &d
		}
		e.RequestID = reqID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) exportMovies(ctx context.Context) ([]recommend.Movie, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT movie_id, tmdb_id, title, year, poster_url, source, created_at_ms, updated_at_ms
		FROM movies
		ORDER BY movie_id`)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var out []recommend.Movie
	for rows.Next() {
		var m recommend.Movie
		var tmdbID, year sql.NullInt64
		var poster sql.NullString
		if err := rows.Scan(&m.MovieID, &tmdbID, &m.Title, &year, &poster, &m.Source, &m.CreatedAtMs, &m.UpdatedAtMs); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		if tmdbID.Valid {
			id := tmdbID.Int64
			m.TmdbID = &id
		}
		m.Year, m.PosterURL = nullableInt(year), nullableString(poster)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) exportMovieGenres(ctx context.Context) ([]recommend.MovieGenre, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT movie_id, genre_id, position
		FROM movie_genres
		ORDER BY movie_id, position, genre_id`)
	if err != nil {
		return nil, fmt.Errorf("query movie_genres: %w", err)
	}
	defer rows.Close()

	var out []recommend.MovieGenre
	for rows.Next() {
		var mg recommend.MovieGenre
		if err := rows.Scan(&mg.MovieID, &mg.GenreID, &mg.Position); err != nil {
			return nil, fmt.Errorf("scan movie genre: %w", err)
		}
		out = append(out, mg)
	}
	return out, rows.Err()
}

func (db *DB) exportGenres(ctx context.Context) ([]recommend.Genre, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT genre_id, name, updated_at_ms
		FROM tmdb_genres
		ORDER BY genre_id`)
	if err != nil {
		return nil, fmt.Errorf("query tmdb_genres: %w", err)
	}
	defer rows.Close()

	var out []recommend.Genre
	for rows.Next() {
		var g recommend.Genre
		if err := rows.Scan(&g.GenreID, &g.Name, &g.UpdatedAtMs); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (db *DB) exportImpressions(ctx context.Context) ([]recommend.Impression, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT impression_id, deck_id, session_id, movie_id, rank, reason_code,
		       model_version, score, ts_ms, request_id
		FROM recommendation_impressions
		ORDER BY ts_ms, deck_id, rank`)
	if err != nil {
		return nil, fmt.Errorf("query recommendation_impressions: %w", err)
	}
	defer rows.Close()

	var out []recommend.Impression
	for rows.Next() {
		var imp recommend.Impression
		var version, reqID sql.NullString
		var score sql.NullFloat64
		if err := rows.Scan(&imp.ImpressionID, &imp.DeckID, &imp.SessionID, &imp.MovieID, &imp.Rank,
			&imp.ReasonCode, &version, &score, &imp.TsMs, &reqID); err != nil {
			return nil, fmt.Errorf("scan impression: %w", err)
		}
		imp.ModelVersion, imp.Score, imp.RequestID = version.String, score.Float64, reqID.String
		out = append(out, imp)
	}
	return out, rows.Err()
}

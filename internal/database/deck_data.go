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
	"strings"
	"time"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

var _ recommend.DataProvider = (*DB)(nil)

// metaCurrentModelVersion is the app_meta key of the promoted model.
const metaCurrentModelVersion = "current_model_version"

// metaPhase is the app_meta key reported by the health check.
const metaPhase = "phase"

// baselineMinLimit is the smallest pool returned by BaselineCandidates.
const baselineMinLimit = 100

// CurrentModelVersion returns the promoted model version, or fallback when
// no pointer is stored.
func (db *DB) CurrentModelVersion(ctx context.Context, fallback string) (version string, err error) {
	defer db.observe("current_model_version", time.Now(), &err)

	v, ok, err := db.getMeta(ctx, metaCurrentModelVersion)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	return v, nil
}

// Phase returns the deployment phase marker, or "unknown" when unset.
func (db *DB) Phase(ctx context.Context) (string, error) {
	v, ok, err := db.getMeta(ctx, metaPhase)
	if err != nil {
		return "", err
	}
	if !ok {
		return "unknown", nil
	}
	return v, nil
}

// SetPhase stores the deployment phase marker.
func (db *DB) SetPhase(ctx context.Context, phase string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return setMeta(ctx, db.conn, metaPhase, phase)
}

// GenreNamesForMovies returns genre names per movie in catalog order.
// Movies without genres are absent from the map.
func (db *DB) GenreNamesForMovies(ctx context.Context, movieIDs []string) (out map[string][]string, err error) {
	out = make(map[string][]string)
	if len(movieIDs) == 0 {
		return out, nil
	}
	defer db.observe("genre_names", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT mg.movie_id, g.name
		FROM movie_genres mg
		JOIN tmdb_genres g ON g.genre_id = mg.genre_id
		WHERE mg.movie_id IN (`+placeholders(1, len(movieIDs))+`)
		ORDER BY mg.movie_id, mg.position, mg.genre_id`, stringArgs(movieIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query genre names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movieID, name string
		if err := rows.Scan(&movieID, &name); err != nil {
			return nil, fmt.Errorf("scan genre name: %w", err)
		}
		out[movieID] = append(out[movieID], name)
	}
	return out, rows.Err()
}

// GenreIDsForMovies returns genre ids per movie in catalog order.
func (db *DB) GenreIDsForMovies(ctx context.Context, movieIDs []string) (out map[string][]int, err error) {
	out = make(map[string][]int)
	if len(movieIDs) == 0 {
		return out, nil
	}
	defer db.observe("genre_ids", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT movie_id, genre_id
		FROM movie_genres
		WHERE movie_id IN (`+placeholders(1, len(movieIDs))+`)
		ORDER BY movie_id, position, genre_id`, stringArgs(movieIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query genre ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movieID string
		var genreID int
		if err := rows.Scan(&movieID, &genreID); err != nil {
			return nil, fmt.Errorf("scan genre id: %w", err)
		}
		out[movieID] = append(out[movieID], genreID)
	}
	return out, rows.Err()
}

// GenrePrefs returns +1 per like and -1 per skip for every genre of every
// movie the session swiped.
func (db *DB) GenrePrefs(ctx context.Context, sessionID string) (prefs recommend.GenrePrefs, err error) {
	defer db.observe("genre_prefs", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			mg.genre_id,
			COUNT(*) FILTER (WHERE se.action = 'like') - COUNT(*) FILTER (WHERE se.action <> 'like') AS score
		FROM swipe_events se
		JOIN movie_genres mg ON mg.movie_id = se.movie_id
		WHERE se.session_id = $1
		GROUP BY mg.genre_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query genre prefs: %w", err)
	}
	defer rows.Close()

	prefs = make(recommend.GenrePrefs)
	for rows.Next() {
		var genreID int
		var score int64
		if err := rows.Scan(&genreID, &score); err != nil {
			return nil, fmt.Errorf("scan genre pref: %w", err)
		}
		prefs[genreID] = float64(score)
	}
	return prefs, rows.Err()
}

// BaselineCandidates returns all-time like and skip counts for movies the
// session has not swiped, most liked first. At least 100 rows are requested.
func (db *DB) BaselineCandidates(ctx context.Context, sessionID string, limit int) (out []recommend.Candidate, err error) {
	defer db.observe("baseline_candidates", time.Now(), &err)

	return db.queryCandidates(ctx, `
		WITH stats AS (
			SELECT
				movie_id,
				COUNT(*) FILTER (WHERE action = 'like') AS likes,
				COUNT(*) FILTER (WHERE action = 'skip') AS skips
			FROM swipe_events
			GROUP BY movie_id
		)
		SELECT
			m.movie_id,
			m.title,
			m.year,
			m.poster_url,
			m.source,
			COALESCE(s.likes, 0) AS likes,
			COALESCE(s.skips, 0) AS skips
		FROM movies m
		LEFT JOIN stats s ON s.movie_id = m.movie_id
		WHERE m.movie_id NOT IN (SELECT movie_id FROM swipe_events WHERE session_id = $1)
		ORDER BY COALESCE(s.likes, 0) DESC, COALESCE(s.skips, 0) ASC, m.updated_at_ms DESC, m.movie_id
		LIMIT $2`, sessionID, max(limit, baselineMinLimit))
}

// getMeta reads an app_meta value. ok is false when the key is absent.
func (db *DB) getMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx, `SELECT value FROM app_meta WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read app_meta %s: %w", key, err)
	}
	return value, true, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// setMeta writes an app_meta value.
func setMeta(ctx context.Context, ex execer, key, value string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO app_meta (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write app_meta %s: %w", key, err)
	}
	return nil
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/josuejero/ReelSwipe/internal/recommend/retrieval"
)

var _ retrieval.Store = (*DB)(nil)

// candidateBaseCTE defines seen, recent and base for session $1 and cutoff $2.
// base holds every unseen movie with its recent like and skip counts.
const candidateBaseCTE = `
	seen AS (
		SELECT movie_id FROM recommendation_impressions WHERE session_id = $1
		UNION
		SELECT movie_id FROM swipe_events WHERE session_id = $1
	),
	recent AS (
		SELECT
			movie_id,
			COUNT(*) FILTER (WHERE action = 'like') AS likes_recent,
			COUNT(*) FILTER (WHERE action = 'skip') AS skips_recent
		FROM swipe_events
		WHERE ts_ms >= $2
		GROUP BY movie_id
	),
	base AS (
		SELECT
			m.movie_id,
			m.title,
			m.year,
			m.poster_url,
			m.source,
			COALESCE(r.likes_recent, 0) AS likes_recent,
			COALESCE(r.skips_recent, 0) AS skips_recent
		FROM movies m
		LEFT JOIN recent r ON r.movie_id = m.movie_id
		WHERE m.movie_id NOT IN (SELECT movie_id FROM seen)
	)`

// PopularRecent returns unseen movies ordered by smoothed recent like rate,
// then recent volume.
func (db *DB) PopularRecent(ctx context.Context, sessionID string, cutoff time.Time, limit int) (out []recommend.Candidate, err error) {
	defer db.observe("popular_recent", time.Now(), &err)

	query := `WITH ` + candidateBaseCTE + `
		SELECT movie_id, title, year, poster_url, source, likes_recent, skips_recent
		FROM base
		ORDER BY
			(likes_recent + 1.0) / (likes_recent + skips_recent + 2.0) DESC,
			(likes_recent + skips_recent) DESC,
			movie_id
		LIMIT $3`

	return db.queryCandidates(ctx, query, sessionID, cutoff.UnixMilli(), limit)
}

// TopGenres returns the session's n genres with the highest net like score,
// ties broken by raw likes.
func (db *DB) TopGenres(ctx context.Context, sessionID string, n int) (out []int, err error) {
	if n <= 0 {
		return nil, nil
	}
	defer db.observe("top_genres", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT mg.genre_id
		FROM swipe_events se
		JOIN movie_genres mg ON mg.movie_id = se.movie_id
		WHERE se.session_id = $1
		GROUP BY mg.genre_id
		ORDER BY
			COUNT(*) FILTER (WHERE se.action = 'like') - COUNT(*) FILTER (WHERE se.action = 'skip') DESC,
			COUNT(*) FILTER (WHERE se.action = 'like') DESC,
			mg.genre_id
		LIMIT $2`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query top genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan top genre: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GenreMatch returns unseen movies in any of genreIDs, ordered by how many of
// those genres they carry, then recent volume.
func (db *DB) GenreMatch(ctx context.Context, sessionID string, genreIDs []int, cutoff time.Time, limit int) (out []recommend.Candidate, err error) {
	if len(genreIDs) == 0 {
		return nil, nil
	}
	defer db.observe("genre_match", time.Now(), &err)

	args := []any{sessionID, cutoff.UnixMilli()}
	for _, id := range genreIDs {
		args = append(args, id)
	}
	limitParam := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	query := `WITH ` + candidateBaseCTE + `
		SELECT b.movie_id, b.title, b.year, b.poster_url, b.source, b.likes_recent, b.skips_recent
		FROM base b
		JOIN movie_genres mg ON mg.movie_id = b.movie_id
		WHERE mg.genre_id IN (` + placeholders(3, len(genreIDs)) + `)
		GROUP BY b.movie_id, b.title, b.year, b.poster_url, b.source, b.likes_recent, b.skips_recent
		ORDER BY
			COUNT(*) DESC,
			(b.likes_recent + b.skips_recent) DESC,
			b.movie_id
		LIMIT ` + limitParam

	return db.queryCandidates(ctx, query, args...)
}

// Explore returns a pseudo-random sample of unseen movies. The order is a
// hash of the movie id and seed, so a fixed seed yields a fixed sample.
func (db *DB) Explore(ctx context.Context, sessionID string, cutoff time.Time, seed int64, limit int) (out []recommend.Candidate, err error) {
	defer db.observe("explore", time.Now(), &err)

	query := `WITH ` + candidateBaseCTE + `
		SELECT movie_id, title, year, poster_url, source, likes_recent, skips_recent
		FROM base
		ORDER BY hash(movie_id || $3), movie_id
		LIMIT $4`

	return db.queryCandidates(ctx, query, sessionID, cutoff.UnixMilli(), strconv.FormatInt(seed, 10), limit)
}

// RecentLikedMovies returns the session's most recently liked movies,
// deduplicated, newest first.
func (db *DB) RecentLikedMovies(ctx context.Context, sessionID string, limit int) (out []string, err error) {
	defer db.observe("recent_liked_movies", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT movie_id
		FROM swipe_events
		WHERE session_id = $1 AND action = 'like'
		ORDER BY ts_ms DESC
		LIMIT $2`, sessionID, max(1, limit))
	if err != nil {
		return nil, fmt.Errorf("query recent likes: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent like: %w", err)
		}
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CFNeighbors returns unseen neighbors of likedMovieIDs under modelVersion,
// scored by summed similarity. Like and skip counts start at cutoff.
func (db *DB) CFNeighbors(ctx context.Context, sessionID, modelVersion string, likedMovieIDs []string, cutoff time.Time, limit int) (out []recommend.Candidate, err error) {
	if len(likedMovieIDs) == 0 {
		return nil, nil
	}
	defer db.observe("cf_neighbors", time.Now(), &err)

	args := []any{sessionID, cutoff.UnixMilli(), modelVersion}
	args = append(args, stringArgs(likedMovieIDs)...)
	limitParam := "$" + strconv.Itoa(len(args)+1)
	args = append(args, max(1, limit))

	query := `WITH
		seen AS (
			SELECT movie_id FROM recommendation_impressions WHERE session_id = $1
			UNION
			SELECT movie_id FROM swipe_events WHERE session_id = $1
		),
		neighbors AS (
			SELECT neighbor_movie_id AS movie_id, SUM(score) AS cf_score
			FROM cf_item_neighbors
			WHERE model_version = $3
			  AND movie_id IN (` + placeholders(4, len(likedMovieIDs)) + `)
			GROUP BY neighbor_movie_id
		),
		recent AS (
			SELECT
				movie_id,
				COUNT(*) FILTER (WHERE action = 'like') AS likes_recent,
				COUNT(*) FILTER (WHERE action = 'skip') AS skips_recent
			FROM swipe_events
			WHERE ts_ms >= $2
			GROUP BY movie_id
		)
		SELECT
			m.movie_id,
			m.title,
			m.year,
			m.poster_url,
			'` + recommend.SourceCFNeighbors + `' AS source,
			COALESCE(r.likes_recent, 0) AS likes_recent,
			COALESCE(r.skips_recent, 0) AS skips_recent,
			n.cf_score
		FROM neighbors n
		JOIN movies m ON m.movie_id = n.movie_id
		LEFT JOIN recent r ON r.movie_id = m.movie_id
		WHERE m.movie_id NOT IN (SELECT movie_id FROM seen)
		ORDER BY n.cf_score DESC, m.movie_id
		LIMIT ` + limitParam

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cf neighbors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c recommend.Candidate
		var year sql.NullInt64
		var poster sql.NullString
		if err := rows.Scan(&c.MovieID, &c.Title, &year, &poster, &c.Source, &c.LikesRecent, &c.SkipsRecent, &c.CFScore); err != nil {
			return nil, fmt.Errorf("scan cf candidate: %w", err)
		}
		c.Year, c.PosterURL = nullableInt(year), nullableString(poster)
		out = append(out, c)
	}
	return out, rows.Err()
}

// queryCandidates runs a query selecting
// (movie_id, title, year, poster_url, source, likes_recent, skips_recent).
func (db *DB) queryCandidates(ctx context.Context, query string, args ...any) ([]recommend.Candidate, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []recommend.Candidate
	for rows.Next() {
		var c recommend.Candidate
		var year sql.NullInt64
		var poster, source sql.NullString
		if err := rows.Scan(&c.MovieID, &c.Title, &year, &poster, &source, &c.LikesRecent, &c.SkipsRecent); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Year, c.PosterURL = nullableInt(year), nullableString(poster)
		c.Source = recommend.SourceOrganic
		if source.Valid && source.String != "" {
			c.Source = source.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

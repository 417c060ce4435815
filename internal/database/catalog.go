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
)

// UpsertMovies inserts or updates catalog movies. created_at_ms is kept
// from the first insert.
func (db *DB) UpsertMovies(ctx context.Context, movies []recommend.Movie) (err error) {
	if len(movies) == 0 {
		return nil
	}
	defer db.observe("upsert_movies", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	nowMs := db.now().UnixMilli()
	return db.withTxRetry(ctx, "upsert_movies", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO movies (movie_id, tmdb_id, title, year, poster_url, source, created_at_ms, updated_at_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (movie_id) DO UPDATE SET
				tmdb_id = excluded.tmdb_id,
				title = excluded.title,
				year = excluded.year,
				poster_url = excluded.poster_url,
				source = excluded.source,
				updated_at_ms = excluded.updated_at_ms`)
		if err != nil {
			return fmt.Errorf("prepare movie upsert: %w", err)
		}
		defer closeWithLog(stmt, "statement")

		for i := range movies {
			m := &movies[i]
			if m.MovieID == "" || m.Title == "" {
				return fmt.Errorf("movie %d: movie_id and title are required", i)
			}
			source := m.Source
			if source == "" {
				source = recommend.SourceOrganic
			}
			created, updated := m.CreatedAtMs, m.UpdatedAtMs
			if updated == 0 {
				updated = nowMs
			}
			if created == 0 {
				created = updated
			}

			var tmdbID, year sql.NullInt64
			if m.TmdbID != nil {
				tmdbID = sql.NullInt64{Int64: *m.TmdbID, Valid: true}
			}
			if m.Year != nil {
				year = sql.NullInt64{Int64: int64(*m.Year), Valid: true}
			}
			var poster sql.NullString
			if m.PosterURL != nil {
				poster = sql.NullString{String: *m.PosterURL, Valid: true}
			}

			if _, err := stmt.ExecContext(ctx, m.MovieID, tmdbID, m.Title, year, poster, source, created, updated); err != nil {
				return fmt.Errorf("upsert movie %s: %w", m.MovieID, err)
			}
		}
		return nil
	})
}

// UpsertGenres inserts or renames catalog genres.
func (db *DB) UpsertGenres(ctx context.Context, genres []recommend.Genre) (err error) {
	if len(genres) == 0 {
		return nil
	}
	defer db.observe("upsert_genres", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	nowMs := db.now().UnixMilli()
	return db.withTxRetry(ctx, "upsert_genres", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tmdb_genres (genre_id, name, updated_at_ms) VALUES ($1, $2, $3)
			ON CONFLICT (genre_id) DO UPDATE SET
				name = excluded.name,
				updated_at_ms = excluded.updated_at_ms`)
		if err != nil {
			return fmt.Errorf("prepare genre upsert: %w", err)
		}
		defer closeWithLog(stmt, "statement")

		for _, g := range genres {
			updated := g.UpdatedAtMs
			if updated == 0 {
				updated = nowMs
			}
			if _, err := stmt.ExecContext(ctx, g.GenreID, g.Name, updated); err != nil {
				return fmt.Errorf("upsert genre %d: %w", g.GenreID, err)
			}
		}
		return nil
	})
}

// SetMovieGenres replaces the genre links of each movie in the map.
// Duplicate genre ids keep their first position.
func (db *DB) SetMovieGenres(ctx context.Context, genres map[string][]int) (err error) {
	if len(genres) == 0 {
		return nil
	}
	defer db.observe("set_movie_genres", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.withTxRetry(ctx, "set_movie_genres", func(tx *sql.Tx) error {
		del, err := tx.PrepareContext(ctx, `DELETE FROM movie_genres WHERE movie_id = $1`)
		if err != nil {
			return fmt.Errorf("prepare genre link delete: %w", err)
		}
		defer closeWithLog(del, "statement")

		ins, err := tx.PrepareContext(ctx, `INSERT INTO movie_genres (movie_id, genre_id, position) VALUES ($1, $2, $3)`)
		if err != nil {
			return fmt.Errorf("prepare genre link insert: %w", err)
		}
		defer closeWithLog(ins, "statement")

		for movieID, ids := range genres {
			if _, err := del.ExecContext(ctx, movieID); err != nil {
				return fmt.Errorf("clear genres of %s: %w", movieID, err)
			}
			seen := make(map[int]struct{}, len(ids))
			pos := 0
			for _, id := range ids {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				if _, err := ins.ExecContext(ctx, movieID, id, pos); err != nil {
					return fmt.Errorf("link %s to genre %d: %w", movieID, id, err)
				}
				pos++
			}
		}
		return nil
	})
}

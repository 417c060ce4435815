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
)

const (
	profileTopGenres = 10
	profileRecent    = 20
)

// SessionProfile summarizes what a session has swiped.
type SessionProfile struct {
	Likes     int64          `json:"likes"`
	Skips     int64          `json:"skips"`
	Total     int64          `json:"total"`
	TopGenres []ProfileGenre `json:"top_genres"`
	Recent    []ProfileSwipe `json:"recent"`
}

// ProfileGenre is one genre of a session profile.
type ProfileGenre struct {
	GenreID int    `json:"genre_id"`
	Name    string `json:"name"`
	Likes   int64  `json:"likes"`
	Skips   int64  `json:"skips"`
	Net     int64  `json:"net"`
}

// ProfileSwipe is one recent swipe with its movie.
type ProfileSwipe struct {
	EventID   string   `json:"event_id"`
	Action    string   `json:"action"`
	TsMs      int64    `json:"ts_ms"`
	MovieID   string   `json:"movie_id"`
	Title     string   `json:"title"`
	Year      *int     `json:"year"`
	PosterURL *string  `json:"poster_url"`
	Genres    []string `json:"genres"`
}

// ProfileSummary returns the like and skip totals of a session, its ten
// best genres by net likes and its twenty most recent swipes.
func (db *DB) ProfileSummary(ctx context.Context, sessionID string) (p *SessionProfile, err error) {
	defer db.observe("profile_summary", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	p = &SessionProfile{TopGenres: []ProfileGenre{}, Recent: []ProfileSwipe{}}

	err = db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE action = 'like'),
			COUNT(*) FILTER (WHERE action = 'skip')
		FROM swipe_events
		WHERE session_id = $1`, sessionID).Scan(&p.Likes, &p.Skips)
	if err != nil {
		return nil, fmt.Errorf("count session swipes: %w", err)
	}
	p.Total = p.Likes + p.Skips

	if err := db.profileGenres(ctx, sessionID, p); err != nil {
		return nil, err
	}
	if err := db.profileRecent(ctx, sessionID, p); err != nil {
		return nil, err
	}

	ids := make([]string, len(p.Recent))
	for i := range p.Recent {
		ids[i] = p.Recent[i].MovieID
	}
	names, err := db.GenreNamesForMovies(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range p.Recent {
		p.Recent[i].Genres = names[p.Recent[i].MovieID]
		if p.Recent[i].Genres == nil {
			p.Recent[i].Genres = []string{}
		}
	}
	return p, nil
}

func (db *DB) profileGenres(ctx context.Context, sessionID string, p *SessionProfile) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT g.genre_id, g.name, likes, skips, likes - skips AS net
		FROM (
			SELECT
				mg.genre_id,
				COUNT(*) FILTER (WHERE se.action = 'like') AS likes,
				COUNT(*) FILTER (WHERE se.action = 'skip') AS skips
			FROM swipe_events se
			JOIN movie_genres mg ON mg.movie_id = se.movie_id
			WHERE se.session_id = $1
			GROUP BY mg.genre_id
		) s
		JOIN tmdb_genres g ON g.genre_id = s.genre_id
		ORDER BY net DESC, likes DESC, g.genre_id
		LIMIT $2`, sessionID, profileTopGenres)
	if err != nil {
		return fmt.Errorf("query profile genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g ProfileGenre
		if err := rows.Scan(&g.GenreID, &g.Name, &g.Likes, &g.Skips, &g.Net); err != nil {
			return fmt.Errorf("scan profile genre: %w", err)
		}
		p.TopGenres = append(p.TopGenres, g)
	}
	return rows.Err()
}

func (db *DB) profileRecent(ctx context.Context, sessionID string, p *SessionProfile) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT se.event_id, se.action, se.ts_ms, m.movie_id, m.title, m.year, m.poster_url
		FROM swipe_events se
		JOIN movies m ON m.movie_id = se.movie_id
		WHERE se.session_id = $1
		ORDER BY se.ts_ms DESC, se.event_id
		LIMIT $2`, sessionID, profileRecent)
	if err != nil {
		return fmt.Errorf("query recent swipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ProfileSwipe
		var year sql.NullInt64
		var poster sql.NullString
		if err := rows.Scan(&s.EventID, &s.Action, &s.TsMs, &s.MovieID, &s.Title, &year, &poster); err != nil {
			return fmt.Errorf("scan recent swipe: %w", err)
		}
		s.Year, s.PosterURL = nullableInt(year), nullableString(poster)
		p.Recent = append(p.Recent, s)
	}
	return rows.Err()
}

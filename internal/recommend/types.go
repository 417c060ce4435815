// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package recommend

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Candidate sources. Unknown catalog sources pass through unchanged.
const (
	SourceOrganic     = "organic"
	SourceTrending    = "tmdb_trending_week"
	SourceCFNeighbors = "cf_neighbors"
)

// Reason codes persisted with impressions.
const (
	ReasonTrendingWeek  = "hybrid_trending_week"
	ReasonCF            = "hybrid_cf"
	ReasonPersonalized  = "hybrid_personalized"
	ReasonPopularRecent = "hybrid_popular_recent"
	ReasonBaselineMix   = "baseline_mix"
)

// Ranker modes.
const (
	ModeTwoStage = "two_stage"
	ModeBaseline = "baseline"
)

// Action is a swipe outcome.
type Action string

const (
	ActionLike Action = "like"
	ActionSkip Action = "skip"
)

// Valid reports whether a is like or skip.
func (a Action) Valid() bool {
	return a == ActionLike || a == ActionSkip
}

// Candidate is a movie eligible for a deck, with the live signals retrieval
// attached to it. Candidates exist only for the duration of one build.
type Candidate struct {
	MovieID     string  `json:"movie_id"`
	Title       string  `json:"title"`
	Year        *int    `json:"year"`
	PosterURL   *string `json:"poster_url"`
	LikesRecent int     `json:"likes_recent"`
	SkipsRecent int     `json:"skips_recent"`
	Source      string  `json:"source"`

	// CFScore is the summed neighbor similarity; zero when the movie was not
	// reached through a CF neighbor list.
	CFScore float64 `json:"cf_score"`
}

// RankedMovie is a candidate placed in a deck.
type RankedMovie struct {
	MovieID    string   `json:"id"`
	Title      string   `json:"title"`
	Year       *int     `json:"year"`
	PosterURL  *string  `json:"poster_url"`
	Genres     []string `json:"genres"`
	ReasonCode string   `json:"reason_code"`
	Score      float64  `json:"score"`
}

// Impression is the record of one movie shown at one rank of one deck.
// Rank is 1-based and unique within DeckID.
type Impression struct {
	ImpressionID string  `json:"impression_id"`
	DeckID       string  `json:"deck_id"`
	SessionID    string  `json:"session_id"`
	MovieID      string  `json:"movie_id"`
	Rank         int     `json:"rank"`
	ReasonCode   string  `json:"reason_code"`
	ModelVersion string  `json:"model_version"`
	Score        float64 `json:"score"`
	TsMs         int64   `json:"ts_ms"`
	RequestID    string  `json:"request_id"`
}

// SwipeEvent is one like or skip. Events are append-only.
type SwipeEvent struct {
	EventID   string `json:"event_id"`
	SessionID string `json:"session_id"`
	DeckID    string `json:"deck_id"`
	MovieID   string `json:"movie_id"`
	Action    Action `json:"action"`
	TsMs      int64  `json:"ts_ms"`
	DwellMs   *int64 `json:"dwell_ms"`
	RequestID string `json:"request_id,omitempty"`
}

// swipeNamespace scopes derived swipe event IDs.
var swipeNamespace = uuid.MustParse("6f1d2c1e-8f0b-4b53-9a57-2f4e0d1f7c3a")

// SwipeEventID derives the idempotency key of a swipe from its identifying
// fields, so a retried submission maps onto the same event.
func SwipeEventID(sessionID, deckID, movieID string, action Action, tsMs int64) string {
	name := fmt.Sprintf("%s|%s|%s|%s|%s", sessionID, deckID, movieID, action, strconv.FormatInt(tsMs, 10))
	return uuid.NewSHA1(swipeNamespace, []byte(name)).String()
}

// GenrePrefs maps genre ID to the session's signed preference
// (+1 per like, -1 per skip of a movie in that genre).
type GenrePrefs map[int]float64

// Neighbor is one row of an item-item neighbor list.
type Neighbor struct {
	MovieID         string  `json:"movie_id"`
	NeighborMovieID string  `json:"neighbor_movie_id"`
	Score           float64 `json:"score"`
}

// ModelParams are the hyperparameters of an item-item CF model.
type ModelParams struct {
	K              int     `json:"k"`
	MinCo          int     `json:"minCo"`
	Shrink         float64 `json:"shrink"`
	SessionLikeCap int     `json:"sessionLikeCap"`
}

// ModelStats summarize a trained model.
type ModelStats struct {
	SessionsWithLikes   int `json:"sessions_with_likes"`
	MoviesWithNeighbors int `json:"movies_with_neighbors"`
	NeighborRows        int `json:"neighbor_rows"`
}

// NeighborModel describes one published model version. Neighbor rows are
// stored separately, keyed by ModelVersion.
type NeighborModel struct {
	ModelVersion string      `json:"model_version"`
	SnapshotID   string      `json:"snapshot_id"`
	Algo         string      `json:"algo"`
	CreatedAtMs  int64       `json:"created_at_ms"`
	Params       ModelParams `json:"params"`
	Stats        ModelStats  `json:"stats"`
}

// EvalMetrics are the aggregate offline scores of a model.
type EvalMetrics struct {
	K         int     `json:"k"`
	Sessions  int     `json:"sessions"`
	NDCGAtK   float64 `json:"ndcg_at_10"`
	MAPAtK    float64 `json:"map_at_10"`
	RecallAtK float64 `json:"recall_at_10"`
}

// EvalReport is written once per evaluation run.
type EvalReport struct {
	ModelVersion  string      `json:"model_version"`
	SnapshotID    string      `json:"snapshot_id"`
	EvaluatedAtMs int64       `json:"evaluated_at_ms"`
	Eval          EvalMetrics `json:"eval"`
}

// ModelVersionInfo is a row of the model registry.
type ModelVersionInfo struct {
	ModelVersion string       `json:"model_version"`
	SnapshotID   string       `json:"snapshot_id"`
	Algo         string       `json:"algo"`
	CreatedAtMs  int64        `json:"created_at_ms"`
	Metrics      *EvalMetrics `json:"metrics,omitempty"`
}

// Deck is the result of one build. DeckID is empty when nothing was shown.
type Deck struct {
	DeckID       string        `json:"deck_id"`
	ModelVersion string        `json:"model_version"`
	Movies       []RankedMovie `json:"deck"`
}

// Movie is a catalog entry.
type Movie struct {
	MovieID     string  `json:"movie_id"`
	TmdbID      *int64  `json:"tmdb_id"`
	Title       string  `json:"title"`
	Year        *int    `json:"year"`
	PosterURL   *string `json:"poster_url"`
	Source      string  `json:"source"`
	CreatedAtMs int64   `json:"created_at_ms"`
	UpdatedAtMs int64   `json:"updated_at_ms"`
}

// Genre is a catalog genre.
type Genre struct {
	GenreID     int    `json:"genre_id"`
	Name        string `json:"name"`
	UpdatedAtMs int64  `json:"updated_at_ms"`
}

// MovieGenre links a movie to one of its genres. Position keeps the catalog
// order so the first genre of a movie is stable.
type MovieGenre struct {
	MovieID  string `json:"movie_id"`
	GenreID  int    `json:"genre_id"`
	Position int    `json:"position"`
}

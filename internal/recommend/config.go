// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package recommend

import (
	"fmt"
	"time"
)

// Config contains all tunables of the recommendation core.
type Config struct {
	// Mode selects the serving pipeline: ModeTwoStage or ModeBaseline.
	Mode string `json:"mode"`

	// DefaultModelVersion is served when no current model pointer is stored.
	DefaultModelVersion string `json:"default_model_version"`

	Deck       DeckConfig       `json:"deck"`
	Retrieval  RetrievalConfig  `json:"retrieval"`
	Rerank     RerankConfig     `json:"rerank"`
	Training   TrainingConfig   `json:"training"`
	Evaluation EvaluationConfig `json:"evaluation"`

	// Seed fixes the explore sampler. If zero, the clock is used.
	Seed int64 `json:"seed"`
}

// DeckConfig bounds the deck size requested by clients.
type DeckConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
}

// RetrievalConfig controls candidate generation.
type RetrievalConfig struct {
	// RecentWindow is how far back likes and skips count as "recent".
	RecentWindow time.Duration `json:"recent_window"`

	// MinCandidates is the floor for the base candidate limit;
	// the effective limit is max(MinCandidates, deckLimit*CandidateMultiplier).
	MinCandidates       int `json:"min_candidates"`
	CandidateMultiplier int `json:"candidate_multiplier"`

	TopGenres int `json:"top_genres"`

	// Per-bucket caps.
	PopularCap    int `json:"popular_cap"`
	GenreMatchCap int `json:"genre_match_cap"`
	ExploreCap    int `json:"explore_cap"`

	// CFLimit caps CF-neighbor candidates; CFMaxLikes bounds the recent
	// likes used as CF seeds.
	CFLimit    int `json:"cf_limit"`
	CFMaxLikes int `json:"cf_max_likes"`

	// StrategyTimeout bounds a single strategy query.
	StrategyTimeout time.Duration `json:"strategy_timeout"`
}

// RerankConfig holds the blend weights, reason thresholds and diversity cap.
type RerankConfig struct {
	PopWeight      float64 `json:"pop_weight"`
	PrefWeight     float64 `json:"pref_weight"`
	CFWeight       float64 `json:"cf_weight"`
	TrendingBoost  float64 `json:"trending_boost"`
	CFReasonMin    float64 `json:"cf_reason_min"`
	PrefReasonMin  float64 `json:"pref_reason_min"`
	MaxPerTopGenre int     `json:"max_per_top_genre"`
	Epsilon        float64 `json:"epsilon"`

	// Baseline blend.
	BaselinePopWeight  float64 `json:"baseline_pop_weight"`
	BaselinePrefWeight float64 `json:"baseline_pref_weight"`
	BaselineMinPool    int     `json:"baseline_min_pool"`
}

// TrainingConfig holds the item-item CF hyperparameters.
type TrainingConfig struct {
	K              int     `json:"k"`
	MinCo          int     `json:"min_co"`
	Shrink         float64 `json:"shrink"`
	SessionLikeCap int     `json:"session_like_cap"`
}

// EvaluationConfig holds the offline evaluation protocol.
type EvaluationConfig struct {
	K             int     `json:"k"`
	MinLikes      int     `json:"min_likes"`
	HistoryFrac   float64 `json:"history_frac"`
	MaxCandidates int     `json:"max_candidates"`
}

// Default model identifiers.
const (
	DefaultModelVersion  = "two_stage_v2"
	BaselineModelVersion = "baseline_v1"
	CFAlgo               = "item_item_cf_cosine_shrink"
)

// DefaultConfig returns a configuration with the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:                ModeTwoStage,
		DefaultModelVersion: DefaultModelVersion,
		Deck: DeckConfig{
			DefaultLimit: 20,
			MaxLimit:     50,
		},
		Retrieval: RetrievalConfig{
			RecentWindow:        14 * 24 * time.Hour,
			MinCandidates:       220,
			CandidateMultiplier: 10,
			TopGenres:           5,
			PopularCap:          140,
			GenreMatchCap:       140,
			ExploreCap:          60,
			CFLimit:             200,
			CFMaxLikes:          20,
			StrategyTimeout:     5 * time.Second,
		},
		Rerank: RerankConfig{
			PopWeight:          0.45,
			PrefWeight:         0.25,
			CFWeight:           0.25,
			TrendingBoost:      0.15,
			CFReasonMin:        0.25,
			PrefReasonMin:      0.15,
			MaxPerTopGenre:     4,
			Epsilon:            1e-9,
			BaselinePopWeight:  0.75,
			BaselinePrefWeight: 0.25,
			BaselineMinPool:    100,
		},
		Training: TrainingConfig{
			K:              30,
			MinCo:          2,
			Shrink:         10,
			SessionLikeCap: 30,
		},
		Evaluation: EvaluationConfig{
			K:             10,
			MinLikes:      3,
			HistoryFrac:   0.6,
			MaxCandidates: 200,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Mode != ModeTwoStage && c.Mode != ModeBaseline {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeTwoStage, ModeBaseline, c.Mode)
	}
	if c.DefaultModelVersion == "" {
		return fmt.Errorf("default_model_version must not be empty")
	}

	if c.Deck.MaxLimit < 1 {
		return fmt.Errorf("deck.max_limit must be positive, got %d", c.Deck.MaxLimit)
	}
	if c.Deck.DefaultLimit < 1 || c.Deck.DefaultLimit > c.Deck.MaxLimit {
		return fmt.Errorf("deck.default_limit must be in [1, %d], got %d", c.Deck.MaxLimit, c.Deck.DefaultLimit)
	}

	if c.Retrieval.RecentWindow <= 0 {
		return fmt.Errorf("retrieval.recent_window must be positive, got %v", c.Retrieval.RecentWindow)
	}
	if c.Retrieval.TopGenres < 1 {
		return fmt.Errorf("retrieval.top_genres must be positive, got %d", c.Retrieval.TopGenres)
	}
	if c.Retrieval.PopularCap < 0 || c.Retrieval.GenreMatchCap < 0 || c.Retrieval.ExploreCap < 0 {
		return fmt.Errorf("retrieval bucket caps must be non-negative")
	}
	if c.Retrieval.CFMaxLikes < 0 || c.Retrieval.CFLimit < 0 {
		return fmt.Errorf("retrieval.cf_limit and retrieval.cf_max_likes must be non-negative")
	}

	if c.Rerank.PopWeight < 0 || c.Rerank.PrefWeight < 0 || c.Rerank.CFWeight < 0 {
		return fmt.Errorf("rerank weights must be non-negative")
	}
	if c.Rerank.MaxPerTopGenre < 1 {
		return fmt.Errorf("rerank.max_per_top_genre must be positive, got %d", c.Rerank.MaxPerTopGenre)
	}
	if c.Rerank.Epsilon <= 0 {
		return fmt.Errorf("rerank.epsilon must be positive, got %g", c.Rerank.Epsilon)
	}

	if c.Training.K < 1 {
		return fmt.Errorf("training.k must be positive, got %d", c.Training.K)
	}
	if c.Training.MinCo < 1 {
		return fmt.Errorf("training.min_co must be positive, got %d", c.Training.MinCo)
	}
	if c.Training.Shrink < 0 {
		return fmt.Errorf("training.shrink must be non-negative, got %f", c.Training.Shrink)
	}
	if c.Training.SessionLikeCap < 2 {
		return fmt.Errorf("training.session_like_cap must be at least 2, got %d", c.Training.SessionLikeCap)
	}

	if c.Evaluation.K < 1 {
		return fmt.Errorf("evaluation.k must be positive, got %d", c.Evaluation.K)
	}
	if c.Evaluation.MinLikes < 2 {
		return fmt.Errorf("evaluation.min_likes must be at least 2, got %d", c.Evaluation.MinLikes)
	}
	if c.Evaluation.HistoryFrac <= 0 || c.Evaluation.HistoryFrac >= 1 {
		return fmt.Errorf("evaluation.history_frac must be in (0, 1), got %f", c.Evaluation.HistoryFrac)
	}
	if c.Evaluation.MaxCandidates < c.Evaluation.K {
		return fmt.Errorf("evaluation.max_candidates must be >= k, got %d", c.Evaluation.MaxCandidates)
	}

	return nil
}

// ClampLimit applies the default and maximum deck size to a requested limit.
// Non-positive requests get the default.
func (d DeckConfig) ClampLimit(requested int) int {
	if requested <= 0 {
		return d.DefaultLimit
	}
	if requested > d.MaxLimit {
		return d.MaxLimit
	}
	return requested
}

// CandidateLimit is the base retrieval limit for a deck of deckLimit movies.
func (r RetrievalConfig) CandidateLimit(deckLimit int) int {
	return max(r.MinCandidates, deckLimit*r.CandidateMultiplier)
}

// Params returns the training config in model descriptor form.
func (t TrainingConfig) Params() ModelParams {
	return ModelParams{
		K:              t.K,
		MinCo:          t.MinCo,
		Shrink:         t.Shrink,
		SessionLikeCap: t.SessionLikeCap,
	}
}

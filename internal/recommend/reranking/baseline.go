// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package reranking

import (
	"math"
	"sort"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// Baseline ranks by all-time popularity plus a small genre-preference term:
//
//	score = wPop*pop + wPref*pref/max(1, max|prefs|)
type Baseline struct {
	popWeight  float64
	prefWeight float64
}

var _ recommend.Ranker = (*Baseline)(nil)

// NewBaseline creates a baseline ranker.
func NewBaseline(cfg recommend.RerankConfig) *Baseline {
	return &Baseline{popWeight: cfg.BaselinePopWeight, prefWeight: cfg.BaselinePrefWeight}
}

// Name returns the ranker identifier.
func (b *Baseline) Name() string {
	return recommend.ModeBaseline
}

// Rank scores candidates and returns the top Limit.
func (b *Baseline) Rank(in recommend.RankInput) []recommend.RankedMovie {
	if len(in.Candidates) == 0 || in.Limit <= 0 {
		return nil
	}

	denom := 1.0
	for _, v := range in.Prefs {
		denom = math.Max(denom, math.Abs(v))
	}

	scored := make([]recommend.RankedMovie, len(in.Candidates))
	for i := range in.Candidates {
		c := &in.Candidates[i]
		pref := PrefScore(in.GenreIDs[c.MovieID], in.Prefs)
		score := b.popWeight*PopScore(c.LikesRecent, c.SkipsRecent) + b.prefWeight*(pref/denom)
		scored[i] = project(c, in.GenreNames[c.MovieID], recommend.ReasonBaselineMix, score)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > in.Limit {
		scored = scored[:in.Limit]
	}
	return scored
}

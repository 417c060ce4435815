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

// TwoStage implements the blended two-stage ranker.
//
// The score is:
//
//	score = wPop*clamp01(popN) + wPref*clamp01((prefN+1)/2) + wCF*clamp01(cfN) + boost
//
// where each signal is divided by its batch maximum (absolute maximum for
// pref, which keeps its sign) floored at epsilon, and boost applies only to
// weekly-trending entries.
type TwoStage struct {
	cfg recommend.RerankConfig
}

var _ recommend.Ranker = (*TwoStage)(nil)

// NewTwoStage creates a two-stage ranker.
func NewTwoStage(cfg recommend.RerankConfig) *TwoStage {
	return &TwoStage{cfg: cfg}
}

// Name returns the ranker identifier.
func (t *TwoStage) Name() string {
	return recommend.ModeTwoStage
}

// Rank scores, sorts and diversifies the candidates.
func (t *TwoStage) Rank(in recommend.RankInput) []recommend.RankedMovie {
	if len(in.Candidates) == 0 || in.Limit <= 0 {
		return nil
	}

	n := len(in.Candidates)
	popRaw := make([]float64, n)
	prefRaw := make([]float64, n)
	cfRaw := make([]float64, n)
	popMax, prefMax, cfMax := t.cfg.Epsilon, t.cfg.Epsilon, t.cfg.Epsilon
	for i := range in.Candidates {
		c := &in.Candidates[i]
		popRaw[i] = PopScore(c.LikesRecent, c.SkipsRecent)
		prefRaw[i] = PrefScore(in.GenreIDs[c.MovieID], in.Prefs)
		cfRaw[i] = c.CFScore
		popMax = math.Max(popMax, popRaw[i])
		prefMax = math.Max(prefMax, math.Abs(prefRaw[i]))
		cfMax = math.Max(cfMax, cfRaw[i])
	}

	scored := make([]recommend.RankedMovie, n)
	for i := range in.Candidates {
		c := &in.Candidates[i]
		pop := popRaw[i] / popMax
		pref := prefRaw[i] / prefMax
		cf := cfRaw[i] / cfMax

		trending := c.Source == recommend.SourceTrending
		var boost float64
		if trending {
			boost = t.cfg.TrendingBoost
		}
		score := t.cfg.PopWeight*clamp01(pop) +
			t.cfg.PrefWeight*clamp01((pref+1)/2) +
			t.cfg.CFWeight*clamp01(cf) +
			boost

		scored[i] = project(c, in.GenreNames[c.MovieID], t.reason(trending, cf, pref), score)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return Diversify(scored, in.Limit, t.cfg.MaxPerTopGenre)
}

// reason picks the first matching label in priority order.
func (t *TwoStage) reason(trending bool, cfNorm, prefNorm float64) string {
	switch {
	case trending:
		return recommend.ReasonTrendingWeek
	case cfNorm > t.cfg.CFReasonMin:
		return recommend.ReasonCF
	case prefNorm > t.cfg.PrefReasonMin:
		return recommend.ReasonPersonalized
	default:
		return recommend.ReasonPopularRecent
	}
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package reranking

import (
	"math"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// PopScore is the smoothed like-rate scaled by log volume.
func PopScore(likes, skips int) float64 {
	total := float64(likes + skips)
	rate := (float64(likes) + 1) / (total + 2)
	return rate * math.Log1p(total)
}

// PrefScore is the mean preference over genreIDs; unknown genres count as 0.
func PrefScore(genreIDs []int, prefs recommend.GenrePrefs) float64 {
	if len(genreIDs) == 0 {
		return 0
	}
	var sum float64
	for _, g := range genreIDs {
		sum += prefs[g]
	}
	return sum / float64(len(genreIDs))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func project(c *recommend.Candidate, genres []string, reason string, score float64) recommend.RankedMovie {
	if genres == nil {
		genres = []string{}
	}
	return recommend.RankedMovie{
		MovieID:    c.MovieID,
		Title:      c.Title,
		Year:       c.Year,
		PosterURL:  c.PosterURL,
		Genres:     genres,
		ReasonCode: reason,
		Score:      score,
	}
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package reranking

import "github.com/josuejero/ReelSwipe/internal/recommend"

// NoGenreBucket is the top-genre bucket of movies without genres.
const NoGenreBucket = "(none)"

// TopGenre returns the diversity bucket of a movie: its first genre.
func TopGenre(m *recommend.RankedMovie) string {
	if len(m.Genres) == 0 {
		return NoGenreBucket
	}
	return m.Genres[0]
}

// Diversify walks a sorted list admitting at most maxPerGenre movies per
// top genre. If that leaves the deck short of limit, a second walk ignores
// the caps and appends unpicked movies in order until the limit is reached.
// The input is not modified.
func Diversify(sorted []recommend.RankedMovie, limit, maxPerGenre int) []recommend.RankedMovie {
	if limit <= 0 || len(sorted) == 0 {
		return nil
	}
	limit = min(limit, len(sorted))

	out := make([]recommend.RankedMovie, 0, limit)
	picked := make([]bool, len(sorted))
	counts := make(map[string]int)
	for i := range sorted {
		if len(out) == limit {
			break
		}
		top := TopGenre(&sorted[i])
		if counts[top] >= maxPerGenre {
			continue
		}
		counts[top]++
		picked[i] = true
		out = append(out, sorted[i])
	}

	for i := range sorted {
		if len(out) == limit {
			break
		}
		if picked[i] {
			continue
		}
		picked[i] = true
		out = append(out, sorted[i])
	}
	return out
}

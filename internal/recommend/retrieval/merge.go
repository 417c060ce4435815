// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package retrieval

import "github.com/josuejero/ReelSwipe/internal/recommend"

// sourcePriority orders candidate sources; the higher value wins on merge.
func sourcePriority(source string) int {
	switch source {
	case recommend.SourceCFNeighbors:
		return 3
	case recommend.SourceTrending:
		return 2
	case "":
		return 0
	default:
		return 1
	}
}

// MergeCandidate combines two occurrences of the same movie. Numeric
// signals take the max, the stronger source wins and missing metadata is
// filled from b.
func MergeCandidate(a, b recommend.Candidate) recommend.Candidate {
	out := a
	out.LikesRecent = max(a.LikesRecent, b.LikesRecent)
	out.SkipsRecent = max(a.SkipsRecent, b.SkipsRecent)
	out.CFScore = max(a.CFScore, b.CFScore)
	if sourcePriority(b.Source) > sourcePriority(a.Source) {
		out.Source = b.Source
	}
	if out.Title == "" {
		out.Title = b.Title
	}
	if out.Year == nil {
		out.Year = b.Year
	}
	if out.PosterURL == nil {
		out.PosterURL = b.PosterURL
	}
	return out
}

// Merge folds buckets into one deduplicated list keyed by movie id.
// First-seen order is kept. Inputs are not modified.
func Merge(buckets ...[]recommend.Candidate) []recommend.Candidate {
	n := 0
	for _, b := range buckets {
		n += len(b)
	}
	index := make(map[string]int, n)
	out := make([]recommend.Candidate, 0, n)
	for _, bucket := range buckets {
		for _, c := range bucket {
			if i, ok := index[c.MovieID]; ok {
				out[i] = MergeCandidate(out[i], c)
				continue
			}
			index[c.MovieID] = len(out)
			out = append(out, c)
		}
	}
	return out
}

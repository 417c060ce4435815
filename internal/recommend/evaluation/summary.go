// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package evaluation

import (
	"fmt"
	"io"
	"sort"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// MovieCount is a movie with a like count.
type MovieCount struct {
	MovieID string `json:"movie_id"`
	Likes   int    `json:"likes"`
}

// Summary is a quick health readout of collected telemetry.
type Summary struct {
	Impressions int          `json:"impressions"`
	Swipes      int          `json:"swipes"`
	Likes       int          `json:"likes"`
	Skips       int          `json:"skips"`
	LikeRate    float64      `json:"like_rate"`
	MeanDwellMs float64      `json:"mean_dwell_ms"`
	TopLiked    []MovieCount `json:"top_liked"`
}

// topLikedSize bounds Summary.TopLiked.
const topLikedSize = 10

// Summarize counts swipes and impressions. Negative dwell times are ignored.
//
//nolint:gocritic // rangeValCopy: SwipeEvent passed by value in range, acceptable for clarity
func Summarize(swipes []recommend.SwipeEvent, impressions int) Summary {
	s := Summary{Impressions: impressions, Swipes: len(swipes)}

	likedBy := make(map[string]int)
	var dwellSum float64
	dwellN := 0
	for _, e := range swipes {
		switch e.Action {
		case recommend.ActionLike:
			s.Likes++
			likedBy[e.MovieID]++
		case recommend.ActionSkip:
			s.Skips++
		}
		if e.DwellMs != nil && *e.DwellMs >= 0 {
			dwellSum += float64(*e.DwellMs)
			dwellN++
		}
	}
	if s.Swipes > 0 {
		s.LikeRate = float64(s.Likes) / float64(s.Swipes)
	}
	if dwellN > 0 {
		s.MeanDwellMs = dwellSum / float64(dwellN)
	}

	for id, n := range likedBy {
		s.TopLiked = append(s.TopLiked, MovieCount{MovieID: id, Likes: n})
	}
	sort.Slice(s.TopLiked, func(i, j int) bool {
		if s.TopLiked[i].Likes != s.TopLiked[j].Likes {
			return s.TopLiked[i].Likes > s.TopLiked[j].Likes
		}
		return s.TopLiked[i].MovieID < s.TopLiked[j].MovieID
	})
	if len(s.TopLiked) > topLikedSize {
		s.TopLiked = s.TopLiked[:topLikedSize]
	}
	return s
}

// Write prints the summary in plain text.
func (s Summary) Write(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("impressions: %d", s.Impressions),
		fmt.Sprintf("swipes: %d", s.Swipes),
		fmt.Sprintf("likes: %d", s.Likes),
		fmt.Sprintf("skips: %d", s.Skips),
		fmt.Sprintf("like rate: %.3f", s.LikeRate),
		fmt.Sprintf("mean dwell ms: %.0f", s.MeanDwellMs),
		"top liked:",
	}
	for _, m := range s.TopLiked {
		lines = append(lines, fmt.Sprintf("  %s: %d", m.MovieID, m.Likes))
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

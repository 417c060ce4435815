// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package training

import (
	"sort"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// LikeSequences returns, per session, the distinct liked movie ids in
// chronological order. Skips are ignored. Events with equal timestamps keep
// their input order, and only the first like of a movie counts.
//
//nolint:gocritic // rangeValCopy: SwipeEvent passed by value in range, acceptable for clarity
func LikeSequences(events []recommend.SwipeEvent) map[string][]string {
	type timedLike struct {
		movieID string
		ts      int64
	}

	bySession := make(map[string][]timedLike)
	for _, e := range events {
		if e.Action != recommend.ActionLike {
			continue
		}
		bySession[e.SessionID] = append(bySession[e.SessionID], timedLike{movieID: e.MovieID, ts: e.TsMs})
	}

	out := make(map[string][]string, len(bySession))
	for sid, likes := range bySession {
		sort.SliceStable(likes, func(i, j int) bool {
			return likes[i].ts < likes[j].ts
		})
		seen := make(map[string]struct{}, len(likes))
		seq := make([]string, 0, len(likes))
		for _, l := range likes {
			if _, ok := seen[l.movieID]; ok {
				continue
			}
			seen[l.movieID] = struct{}{}
			seq = append(seq, l.movieID)
		}
		out[sid] = seq
	}
	return out
}

// SortedSessions returns the session ids of seqs in ascending order.
func SortedSessions(seqs map[string][]string) []string {
	ids := make([]string, 0, len(seqs))
	for sid := range seqs {
		ids = append(ids, sid)
	}
	sort.Strings(ids)
	return ids
}

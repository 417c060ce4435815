// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package reranking turns retrieved candidates into an ordered deck.
//
// # Available Rankers
//
// TwoStage (mode "two_stage"):
//   - Blends popularity, genre personalization and CF signals, each
//     normalized to its batch maximum
//   - Adds a fixed boost for weekly-trending catalog entries
//   - Labels every movie with a reason code for attribution
//   - Applies a soft per-top-genre cap, then backfills to the limit
//
// Baseline (mode "baseline"):
//   - All-time popularity plus a lightly weighted genre preference
//   - No diversity pass; reason code "baseline_mix"
//
// # Signals
//
//	pop  = ((likes+1)/(likes+skips+2)) * ln(1+likes+skips)
//	pref = mean(prefs[g]) over the movie's genres, 0 without genres
//	cf   = summed neighbor similarity from retrieval
//
// # Interface
//
// Both rankers implement recommend.Ranker:
//
//	type Ranker interface {
//	    Name() string
//	    Rank(in RankInput) []RankedMovie
//	}
//
// # Thread Safety
//
// Rankers are stateless after construction and safe for concurrent use.
package reranking

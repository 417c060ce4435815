// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package evaluation scores neighbor models offline before promotion.
//
// # Holdout Protocol
//
// Each session's distinct likes, in chronological order, are split at
// max(1, floor(n*HistoryFrac)) into history and holdout. Sessions with fewer
// than MinLikes likes are skipped. Candidates are every neighbor reachable
// from a history item, scored by summed similarity and excluding history
// items. The top MaxCandidates candidates are compared to the holdout with
// NDCG@K, MAP@K and Recall@K, and the per-session values are averaged.
//
// # Impression Labels
//
// EvaluateImpressions scores what was actually served: impressions are
// grouped by model version and deck, labeled 1 when the session liked that
// movie in that deck, and scored with graded NDCG and AP per deck.
package evaluation

import (
	"context"
	"sort"
	"time"

	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/josuejero/ReelSwipe/internal/recommend/training"
	"github.com/rs/zerolog"
)

// Evaluator runs the holdout protocol.
type Evaluator struct {
	cfg    recommend.EvaluationConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewEvaluator creates an evaluator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEvaluator(cfg recommend.EvaluationConfig, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		cfg:    cfg,
		logger: logger.With().Str("component", "evaluator").Logger(),
		now:    time.Now,
	}
}

// Split cuts a chronological like sequence into history and holdout.
func Split(seq []string, historyFrac float64) (history, holdout []string) {
	cut := max(1, int(float64(len(seq))*historyFrac))
	if cut > len(seq) {
		cut = len(seq)
	}
	return seq[:cut], seq[cut:]
}

// NeighborIndex groups neighbor rows by source movie, keeping row order.
func NeighborIndex(rows []recommend.Neighbor) map[string][]recommend.Neighbor {
	idx := make(map[string][]recommend.Neighbor)
	for _, r := range rows {
		idx[r.MovieID] = append(idx[r.MovieID], r)
	}
	return idx
}

// RankFromHistory sums neighbor scores over the history items, skipping
// history items themselves, and returns up to limit ids by score descending
// (ties by id ascending).
func RankFromHistory(history []string, index map[string][]recommend.Neighbor, limit int) []string {
	inHistory := make(map[string]struct{}, len(history))
	for _, h := range history {
		inHistory[h] = struct{}{}
	}

	scores := make(map[string]float64)
	for _, h := range history {
		for _, n := range index[h] {
			if _, ok := inHistory[n.NeighborMovieID]; ok {
				continue
			}
			scores[n.NeighborMovieID] += n.Score
		}
	}

	ranked := make([]string, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Evaluate scores neighbors against the like sequences in events.
func (e *Evaluator) Evaluate(ctx context.Context, events []recommend.SwipeEvent, neighbors []recommend.Neighbor, modelVersion, snapshotID string) (*recommend.EvalReport, error) {
	seqs := training.LikeSequences(events)
	index := NeighborIndex(neighbors)
	k := e.cfg.K

	var ndcgs, maps, recalls []float64
	for _, sid := range training.SortedSessions(seqs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq := seqs[sid]
		if len(seq) < e.cfg.MinLikes {
			continue
		}
		history, holdout := Split(seq, e.cfg.HistoryFrac)
		if len(holdout) == 0 {
			continue
		}

		truth := make(map[string]struct{}, len(holdout))
		for _, id := range holdout {
			truth[id] = struct{}{}
		}
		ranked := RankFromHistory(history, index, e.cfg.MaxCandidates)

		ndcgs = append(ndcgs, NDCGAtK(ranked, truth, k))
		maps = append(maps, APAtK(ranked, truth, k))
		recalls = append(recalls, RecallAtK(ranked, truth, k))
	}

	report := &recommend.EvalReport{
		ModelVersion:  modelVersion,
		SnapshotID:    snapshotID,
		EvaluatedAtMs: e.now().UnixMilli(),
		Eval: recommend.EvalMetrics{
			K:         k,
			Sessions:  len(ndcgs),
			NDCGAtK:   mean(ndcgs),
			MAPAtK:    mean(maps),
			RecallAtK: mean(recalls),
		},
	}

	e.logger.Info().
		Str("model_version", modelVersion).
		Int("sessions", report.Eval.Sessions).
		Float64("ndcg", report.Eval.NDCGAtK).
		Float64("map", report.Eval.MAPAtK).
		Float64("recall", report.Eval.RecallAtK).
		Msg("offline evaluation complete")

	return report, nil
}

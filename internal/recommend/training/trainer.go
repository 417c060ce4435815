// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package training builds item-item collaborative filtering models from
// snapshot like sequences.
//
// For every pair of movies liked in the same session the trainer counts
// co-occurrences and scores the pair with count-shrunk cosine similarity:
//
//	cosine = c / sqrt(n[a] * n[b])
//	score  = cosine * c / (c + shrink)
//
// where n[m] is the number of sessions that liked m. Pairs seen in fewer
// than MinCo sessions are dropped and each movie keeps its top K neighbors.
// Only the first SessionLikeCap likes of a session contribute pairs.
//
// Output is deterministic for a given input: movies are emitted in id order
// and equal scores are ordered by neighbor id.
package training

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/rs/zerolog"
)

// Model is a trained neighbor model ready to be written or loaded.
type Model struct {
	Info      recommend.NeighborModel
	Neighbors []recommend.Neighbor
}

// Trainer trains item-item CF models.
type Trainer struct {
	cfg    recommend.TrainingConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewTrainer creates a trainer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainer(cfg recommend.TrainingConfig, logger zerolog.Logger) *Trainer {
	return &Trainer{
		cfg:    cfg,
		logger: logger.With().Str("component", "cf_trainer").Logger(),
		now:    time.Now,
	}
}

// Train builds a model from validated swipe events.
func (t *Trainer) Train(ctx context.Context, events []recommend.SwipeEvent, modelVersion, snapshotID string) (*Model, error) {
	if modelVersion == "" {
		return nil, errors.New("model version is required")
	}

	seqs := LikeSequences(events)
	sessions := SortedSessions(seqs)

	sessionsPerMovie := make(map[string]int)
	for _, sid := range sessions {
		for _, m := range seqs[sid] {
			sessionsPerMovie[m]++
		}
	}

	co := make(map[string]map[string]int)
	inc := func(a, b string) {
		row := co[a]
		if row == nil {
			row = make(map[string]int)
			co[a] = row
		}
		row[b]++
	}
	for _, sid := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids := seqs[sid]
		if len(ids) > t.cfg.SessionLikeCap {
			ids = ids[:t.cfg.SessionLikeCap]
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				inc(ids[i], ids[j])
				inc(ids[j], ids[i])
			}
		}
	}

	movies := make([]string, 0, len(co))
	for m := range co {
		movies = append(movies, m)
	}
	sort.Strings(movies)

	var neighbors []recommend.Neighbor
	withNeighbors := 0
	for _, a := range movies {
		scored := t.scoreRow(a, co[a], sessionsPerMovie)
		if len(scored) == 0 {
			continue
		}
		withNeighbors++
		neighbors = append(neighbors, scored...)
	}

	model := &Model{
		Info: recommend.NeighborModel{
			ModelVersion: modelVersion,
			SnapshotID:   snapshotID,
			Algo:         recommend.CFAlgo,
			CreatedAtMs:  t.now().UnixMilli(),
			Params:       t.cfg.Params(),
			Stats: recommend.ModelStats{
				SessionsWithLikes:   len(seqs),
				MoviesWithNeighbors: withNeighbors,
				NeighborRows:        len(neighbors),
			},
		},
		Neighbors: neighbors,
	}

	t.logger.Info().
		Str("model_version", modelVersion).
		Str("snapshot_id", snapshotID).
		Int("sessions_with_likes", model.Info.Stats.SessionsWithLikes).
		Int("movies_with_neighbors", withNeighbors).
		Int("neighbor_rows", len(neighbors)).
		Msg("trained item-item model")

	return model, nil
}

// scoreRow returns the top-K neighbors of movie a.
func (t *Trainer) scoreRow(a string, row map[string]int, sessionsPerMovie map[string]int) []recommend.Neighbor {
	na := max(sessionsPerMovie[a], 1)
	scored := make([]recommend.Neighbor, 0, len(row))
	for b, c := range row {
		if c < t.cfg.MinCo {
			continue
		}
		nb := max(sessionsPerMovie[b], 1)
		cosine := float64(c) / math.Sqrt(float64(na)*float64(nb))
		score := cosine * (float64(c) / (float64(c) + t.cfg.Shrink))
		scored = append(scored, recommend.Neighbor{MovieID: a, NeighborMovieID: b, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].NeighborMovieID < scored[j].NeighborMovieID
	})
	if len(scored) > t.cfg.K {
		scored = scored[:t.cfg.K]
	}
	return scored
}

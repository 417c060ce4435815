// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package evaluation

import (
	"sort"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// unknownModel labels impressions without a model version.
const unknownModel = "unknown"

// LabeledImpression is an impression with its observed outcome.
type LabeledImpression struct {
	DeckID       string  `json:"deck_id"`
	MovieID      string  `json:"movie_id"`
	ModelVersion string  `json:"model_version"`
	Rank         int     `json:"rank"`
	Label        float64 `json:"label"`
}

// DeckScore is the evaluation of one served deck.
type DeckScore struct {
	DeckKey      string  `json:"deckKey"`
	ModelVersion string  `json:"modelVersion"`
	NDCG         float64 `json:"ndcg"`
	MAP          float64 `json:"map"`
	Impressions  int     `json:"impressions"`
	Positives    int     `json:"positives"`
}

// ModelScore aggregates deck scores per model version.
type ModelScore struct {
	ModelVersion string  `json:"model_version"`
	Decks        int     `json:"decks"`
	Impressions  int     `json:"impressions"`
	NDCGAtK      float64 `json:"ndcg_at_10"`
	MAPAtK       float64 `json:"map_at_10"`
}

// Coverage describes catalog spread across all impressions.
type Coverage struct {
	UniqueMovies     int     `json:"unique_movies"`
	TotalImpressions int     `json:"total_impressions"`
	UniqueMovieRate  float64 `json:"unique_movie_rate"`
}

// ImpressionReport is the result of EvaluateImpressions.
type ImpressionReport struct {
	K             int          `json:"k"`
	Models        []ModelScore `json:"models"`
	Coverage      Coverage     `json:"coverage"`
	PerDeckSample []DeckScore  `json:"perDeckSample"`
}

// perDeckSampleSize bounds the per-deck listing of a report.
const perDeckSampleSize = 10

// LabelImpressions joins impressions with swipes: an impression is labeled 1
// when its session liked the same movie from the same deck.
//
//nolint:gocritic // rangeValCopy: records passed by value in range, acceptable for clarity
func LabelImpressions(impressions []recommend.Impression, swipes []recommend.SwipeEvent) []LabeledImpression {
	liked := make(map[[3]string]struct{})
	for _, s := range swipes {
		if s.Action == recommend.ActionLike {
			liked[[3]string{s.SessionID, s.DeckID, s.MovieID}] = struct{}{}
		}
	}
	out := make([]LabeledImpression, len(impressions))
	for i, imp := range impressions {
		var label float64
		if _, ok := liked[[3]string{imp.SessionID, imp.DeckID, imp.MovieID}]; ok {
			label = 1
		}
		out[i] = LabeledImpression{
			DeckID:       imp.DeckID,
			MovieID:      imp.MovieID,
			ModelVersion: imp.ModelVersion,
			Rank:         imp.Rank,
			Label:        label,
		}
	}
	return out
}

// EvaluateImpressions scores served decks by their observed labels. Models
// are ordered by NDCG descending; decks keep first-seen order.
func EvaluateImpressions(rows []LabeledImpression, k int) *ImpressionReport {
	type deck struct {
		key   string
		model string
		items []LabeledImpression
	}
	var decks []*deck
	byKey := make(map[string]*deck)
	movies := make(map[string]struct{})

	for _, r := range rows {
		mv := r.ModelVersion
		if mv == "" {
			mv = unknownModel
		}
		key := mv + "::" + r.DeckID
		d := byKey[key]
		if d == nil {
			d = &deck{key: key, model: mv}
			byKey[key] = d
			decks = append(decks, d)
		}
		d.items = append(d.items, r)
		movies[r.MovieID] = struct{}{}
	}

	perDeck := make([]DeckScore, 0, len(decks))
	var modelOrder []string
	byModel := make(map[string][]DeckScore)
	for _, d := range decks {
		sort.SliceStable(d.items, func(i, j int) bool { return d.items[i].Rank < d.items[j].Rank })
		labels := make([]float64, len(d.items))
		positives := 0
		for i, it := range d.items {
			labels[i] = it.Label
			if it.Label > 0 {
				positives++
			}
		}
		ds := DeckScore{
			DeckKey:      d.key,
			ModelVersion: d.model,
			NDCG:         GradedNDCGAtK(labels, k),
			MAP:          GradedAPAtK(labels, k),
			Impressions:  len(d.items),
			Positives:    positives,
		}
		perDeck = append(perDeck, ds)
		if _, ok := byModel[d.model]; !ok {
			modelOrder = append(modelOrder, d.model)
		}
		byModel[d.model] = append(byModel[d.model], ds)
	}

	models := make([]ModelScore, 0, len(modelOrder))
	for _, mv := range modelOrder {
		ds := byModel[mv]
		ndcgs := make([]float64, len(ds))
		maps := make([]float64, len(ds))
		imps := 0
		for i, d := range ds {
			ndcgs[i] = d.NDCG
			maps[i] = d.MAP
			imps += d.Impressions
		}
		models = append(models, ModelScore{
			ModelVersion: mv,
			Decks:        len(ds),
			Impressions:  imps,
			NDCGAtK:      mean(ndcgs),
			MAPAtK:       mean(maps),
		})
	}
	sort.SliceStable(models, func(i, j int) bool { return models[i].NDCGAtK > models[j].NDCGAtK })

	cov := Coverage{UniqueMovies: len(movies), TotalImpressions: len(rows)}
	if len(rows) > 0 {
		cov.UniqueMovieRate = float64(len(movies)) / float64(len(rows))
	}

	sample := perDeck
	if len(sample) > perDeckSampleSize {
		sample = sample[:perDeckSampleSize]
	}

	return &ImpressionReport{K: k, Models: models, Coverage: cov, PerDeckSample: sample}
}

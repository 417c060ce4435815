// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package evaluation

import (
	"math"
	"sort"
)

// DCG is the discounted cumulative gain of graded labels in rank order,
// with gain 2^rel - 1 and discount log2(i+2).
func DCG(labels []float64) float64 {
	var s float64
	for i, rel := range labels {
		s += (math.Pow(2, rel) - 1) / math.Log2(float64(i)+2)
	}
	return s
}

// NDCGAtK scores a ranked id list against a binary relevance set. The ideal
// ranking places min(k, |truth|) relevant items first. The result is in [0, 1].
func NDCGAtK(ranked []string, truth map[string]struct{}, k int) float64 {
	top := ranked[:min(k, len(ranked))]
	rels := make([]float64, len(top))
	for i, id := range top {
		if _, ok := truth[id]; ok {
			rels[i] = 1
		}
	}
	ideal := make([]float64, min(k, len(truth)))
	for i := range ideal {
		ideal[i] = 1
	}
	idcg := DCG(ideal)
	if idcg <= 0 {
		return 0
	}
	return DCG(rels) / idcg
}

// APAtK is average precision at k normalized by min(|truth|, k).
func APAtK(ranked []string, truth map[string]struct{}, k int) float64 {
	denom := min(len(truth), k)
	if denom == 0 {
		return 0
	}
	var hits, sum float64
	for i, id := range ranked[:min(k, len(ranked))] {
		if _, ok := truth[id]; ok {
			hits++
			sum += hits / float64(i+1)
		}
	}
	return sum / float64(denom)
}

// RecallAtK is the share of truth found in the top k.
func RecallAtK(ranked []string, truth map[string]struct{}, k int) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for _, id := range ranked[:min(k, len(ranked))] {
		if _, ok := truth[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// GradedNDCGAtK compares the top k labels to the same labels sorted
// descending.
func GradedNDCGAtK(labels []float64, k int) float64 {
	top := labels[:min(k, len(labels))]
	ideal := make([]float64, len(labels))
	copy(ideal, labels)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	idcg := DCG(ideal[:min(k, len(ideal))])
	if idcg <= 0 {
		return 0
	}
	return DCG(top) / idcg
}

// GradedAPAtK is average precision at k over positive labels, normalized by
// the total number of positives (at least 1).
func GradedAPAtK(labels []float64, k int) float64 {
	positives := 0
	for _, l := range labels {
		if l > 0 {
			positives++
		}
	}
	var hits, sum float64
	for i, l := range labels[:min(k, len(labels))] {
		if l > 0 {
			hits++
			sum += hits / float64(i+1)
		}
	}
	return sum / float64(max(1, positives))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

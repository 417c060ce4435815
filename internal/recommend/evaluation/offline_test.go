// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package evaluation

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/rs/zerolog"
)

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func likes(session string, movies ...string) []recommend.SwipeEvent {
	out := make([]recommend.SwipeEvent, len(movies))
	for i, m := range movies {
		out[i] = recommend.SwipeEvent{SessionID: session, MovieID: m, Action: recommend.ActionLike, TsMs: int64(i + 1)}
	}
	return out
}

func newTestEvaluator() *Evaluator {
	e := NewEvaluator(recommend.DefaultConfig().Evaluation, zerolog.Nop())
	e.now = func() time.Time { return time.UnixMilli(77) }
	return e
}

func TestSplit(t *testing.T) {
	tests := []struct {
		n, wantHistory int
	}{
		{5, 3},
		{3, 1},
		{4, 2},
		{10, 6},
		{1, 1},
	}
	for _, tt := range tests {
		seq := make([]string, tt.n)
		history, holdout := Split(seq, 0.6)
		if len(history) != tt.wantHistory || len(history)+len(holdout) != tt.n {
			t.Errorf("Split(n=%d) = %d/%d, want %d history", tt.n, len(history), len(holdout), tt.wantHistory)
		}
	}
}

func TestEvaluate_SplitScenarioRecall(t *testing.T) {
	events := likes("s1", "A", "B", "C", "D", "E")
	neighbors := []recommend.Neighbor{
		{MovieID: "A", NeighborMovieID: "D", Score: 0.9},
		{MovieID: "B", NeighborMovieID: "D", Score: 0.5},
		{MovieID: "C", NeighborMovieID: "X", Score: 0.3},
		{MovieID: "A", NeighborMovieID: "B", Score: 5},
	}
	report, err := newTestEvaluator().Evaluate(context.Background(), events, neighbors, "cf_v1", "snap")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if report.Eval.Sessions != 1 {
		t.Fatalf("Sessions = %d, want 1", report.Eval.Sessions)
	}
	if report.Eval.RecallAtK < 0.5 {
		t.Errorf("RecallAtK = %v, want >= 0.5", report.Eval.RecallAtK)
	}
	if report.Eval.K != 10 || report.EvaluatedAtMs != 77 || report.ModelVersion != "cf_v1" || report.SnapshotID != "snap" {
		t.Errorf("report = %+v", report)
	}
}

func TestEvaluate_SkipsShortSessions(t *testing.T) {
	events := append(likes("short", "A", "B"), likes("long", "A", "B", "C")...)
	report, err := newTestEvaluator().Evaluate(context.Background(), events, nil, "cf_v1", "")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if report.Eval.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", report.Eval.Sessions)
	}
	if report.Eval.NDCGAtK != 0 {
		t.Errorf("NDCGAtK = %v, want 0 without neighbors", report.Eval.NDCGAtK)
	}
}

func TestEvaluate_NoSessions(t *testing.T) {
	report, err := newTestEvaluator().Evaluate(context.Background(), nil, nil, "cf_v1", "")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if report.Eval.Sessions != 0 || report.Eval.NDCGAtK != 0 || math.IsNaN(report.Eval.MAPAtK) {
		t.Errorf("Eval = %+v, want zeros", report.Eval)
	}
}

func TestRankFromHistory(t *testing.T) {
	index := NeighborIndex([]recommend.Neighbor{
		{MovieID: "A", NeighborMovieID: "Y", Score: 0.2},
		{MovieID: "A", NeighborMovieID: "B", Score: 0.9},
		{MovieID: "B", NeighborMovieID: "Y", Score: 0.2},
		{MovieID: "B", NeighborMovieID: "X", Score: 0.4},
		{MovieID: "B", NeighborMovieID: "W", Score: 0.4},
	})
	got := RankFromHistory([]string{"A", "B"}, index, 2)
	want := []string{"W", "X"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("RankFromHistory() = %v, want %v", got, want)
	}
}

func TestNDCGAtK(t *testing.T) {
	tests := []struct {
		name   string
		ranked []string
		truth  map[string]struct{}
		want   float64
	}{
		{"perfect", []string{"a", "b", "c"}, set("a", "b"), 1},
		{"holdout in order within top k", []string{"a", "b", "x"}, set("a", "b"), 1},
		{"no hits", []string{"x", "y"}, set("a"), 0},
		{"empty truth", []string{"x"}, set(), 0},
		{"second position", []string{"x", "a"}, set("a"), 1 / math.Log2(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NDCGAtK(tt.ranked, tt.truth, 10)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("NDCGAtK() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("NDCGAtK() = %v, outside [0, 1]", got)
			}
		})
	}
}

func TestNDCGAtKBounded(t *testing.T) {
	ranked := []string{"x", "a", "y", "b", "c", "z", "d"}
	for k := 1; k <= 10; k++ {
		got := NDCGAtK(ranked, set("a", "b", "c", "d", "e"), k)
		if got < 0 || got > 1 {
			t.Errorf("NDCGAtK(k=%d) = %v, outside [0, 1]", k, got)
		}
	}
}

func TestAPAtK(t *testing.T) {
	got := APAtK([]string{"a", "x", "b"}, set("a", "b"), 10)
	want := (1.0 + 2.0/3.0) / 2
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("APAtK() = %v, want %v", got, want)
	}
	if got := APAtK(nil, set(), 10); got != 0 {
		t.Errorf("APAtK(empty) = %v, want 0", got)
	}
}

func TestRecallAtK(t *testing.T) {
	if got := RecallAtK([]string{"a", "x"}, set("a", "b"), 10); got != 0.5 {
		t.Errorf("RecallAtK() = %v, want 0.5", got)
	}
	if got := RecallAtK([]string{"x", "a"}, set("a"), 1); got != 0 {
		t.Errorf("RecallAtK(k=1) = %v, want 0", got)
	}
}

func TestRenderOfflineReport(t *testing.T) {
	md := RenderOfflineReport(&recommend.EvalReport{
		ModelVersion: "cf_v1",
		SnapshotID:   "snap",
		Eval:         recommend.EvalMetrics{K: 10, Sessions: 3, NDCGAtK: 0.5, MAPAtK: 0.25, RecallAtK: 1},
	})
	for _, want := range []string{"**Model:** cf_v1", "| NDCG@10 | 0.5000 | ██████████░░░░░░░░░░ |", "| Recall@10 | 1.0000 |"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		x        float64
		wantFull int
	}{
		{0, 0},
		{0.5, 10},
		{1, 20},
		{1.7, 20},
		{-1, 0},
	}
	for _, tt := range tests {
		got := Bar(tt.x)
		if n := strings.Count(got, "█"); n != tt.wantFull {
			t.Errorf("Bar(%v) full cells = %d, want %d", tt.x, n, tt.wantFull)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != 20 {
			t.Errorf("Bar(%v) width = %d, want 20", tt.x, n)
		}
	}
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// barWidth is the number of cells in a report bar.
const barWidth = 20

// Bar renders x in [0, 1] as a fixed-width block bar.
func Bar(x float64) string {
	n := int(math.Round(x * barWidth))
	n = max(0, min(barWidth, n))
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}

// RenderOfflineReport renders the human-readable holdout report.
func RenderOfflineReport(r *recommend.EvalReport) string {
	var b strings.Builder
	e := r.Eval
	fmt.Fprintf(&b, "# Offline Evaluation Report\n\n")
	fmt.Fprintf(&b, "**Model:** %s  \n", r.ModelVersion)
	fmt.Fprintf(&b, "**Snapshot:** %s  \n", r.SnapshotID)
	fmt.Fprintf(&b, "**Sessions evaluated:** %d  \n\n", e.Sessions)
	fmt.Fprintf(&b, "## Metrics (k=%d)\n\n", e.K)
	b.WriteString("| Metric | Value | Plot |\n")
	b.WriteString("|---|---:|---|\n")
	fmt.Fprintf(&b, "| NDCG@%d | %.4f | %s |\n", e.K, e.NDCGAtK, Bar(e.NDCGAtK))
	fmt.Fprintf(&b, "| MAP@%d | %.4f | %s |\n", e.K, e.MAPAtK, Bar(e.MAPAtK))
	fmt.Fprintf(&b, "| Recall@%d | %.4f | %s |\n\n", e.K, e.RecallAtK, Bar(e.RecallAtK))
	b.WriteString("## Notes\n")
	b.WriteString("- Offline split inside each session: earliest likes predict the rest.\n")
	b.WriteString("- Scores are summed neighbor similarities from historical likes.\n")
	b.WriteString("- If metrics are unstable, collect more sessions with 5+ likes each.\n")
	return b.String()
}

// RenderImpressionReport renders an impression-label report.
func RenderImpressionReport(r *ImpressionReport) string {
	var b strings.Builder
	b.WriteString("# ReelSwipe Offline Evaluation\n")
	b.WriteString("Interpret these as sanity metrics. Use them to compare model versions, not to claim truth.\n\n")

	fmt.Fprintf(&b, "## Summary (k=%d)\n\n", r.K)
	fmt.Fprintf(&b, "| model_version | decks | impressions | NDCG@%d | MAP@%d |\n", r.K, r.K)
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, m := range r.Models {
		fmt.Fprintf(&b, "| %s | %d | %d | %.4f | %.4f |\n", m.ModelVersion, m.Decks, m.Impressions, m.NDCGAtK, m.MAPAtK)
	}

	b.WriteString("\n## Coverage\n\n")
	fmt.Fprintf(&b, "- unique movies: %d\n", r.Coverage.UniqueMovies)
	fmt.Fprintf(&b, "- total impressions: %d\n", r.Coverage.TotalImpressions)
	fmt.Fprintf(&b, "- unique-movie rate: %.4f\n", r.Coverage.UniqueMovieRate)

	fmt.Fprintf(&b, "\n## Per-deck sample (first %d)\n\n", perDeckSampleSize)
	fmt.Fprintf(&b, "| deckKey | model | impressions | positives | NDCG@%d | MAP@%d |\n", r.K, r.K)
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, d := range r.PerDeckSample {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %.4f | %.4f |\n", d.DeckKey, d.ModelVersion, d.Impressions, d.Positives, d.NDCG, d.MAP)
	}
	return b.String()
}

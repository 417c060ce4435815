// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package metrics holds the Prometheus instruments for ReelSwipe.
//
// Instruments are registered with the default registry through promauto and
// exposed on GET /metrics by the API server. Callers use the Record* helpers
// rather than touching the vectors directly.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelswipe_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelswipe_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Deck serving
	DeckBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelswipe_deck_builds_total",
			Help: "Deck builds by ranker mode and outcome (ok, no_candidates, error)",
		},
		[]string{"mode", "outcome"},
	)

	DeckBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelswipe_deck_build_duration_seconds",
			Help:    "End-to-end deck build latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	RetrievalCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelswipe_retrieval_candidates",
			Help:    "Candidates returned per retrieval strategy",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 150, 200, 400},
		},
		[]string{"strategy"},
	)

	RetrievalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelswipe_retrieval_failures_total",
			Help: "Retrieval strategy failures, including open circuit rejections",
		},
		[]string{"strategy", "reason"},
	)

	ImpressionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelswipe_impressions_recorded_total",
			Help: "Impression rows written, by reason code",
		},
		[]string{"reason_code"},
	)

	SwipesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelswipe_swipes_recorded_total",
			Help: "Swipe events accepted, by action",
		},
		[]string{"action"},
	)

	// Models
	ModelPromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelswipe_model_promotions_total",
			Help: "Times the current model pointer was moved",
		},
	)

	ModelEvalScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelswipe_model_eval_score",
			Help: "Offline evaluation scores of loaded model versions",
		},
		[]string{"model_version", "metric"},
	)

	NeighborRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelswipe_neighbor_rows_loaded_total",
			Help: "CF neighbor rows written to the store per model version",
		},
		[]string{"model_version"},
	)

	// Retention
	RetentionRowsPruned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelswipe_retention_rows_pruned_total",
			Help: "Rows removed by the retention service",
		},
		[]string{"table"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelswipe_api_requests_total",
			Help: "Total API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelswipe_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordDBQuery records a store query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordDeckBuild records one deck build.
func RecordDeckBuild(mode, outcome string, duration time.Duration) {
	DeckBuildsTotal.WithLabelValues(mode, outcome).Inc()
	DeckBuildDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordRetrieval records the outcome of one retrieval strategy.
// reason is "error" or "circuit_open" when err is non-nil.
func RecordRetrieval(strategy string, candidates int, err error, circuitOpen bool) {
	if err == nil {
		RetrievalCandidates.WithLabelValues(strategy).Observe(float64(candidates))
		return
	}
	reason := "error"
	if circuitOpen {
		reason = "circuit_open"
	}
	RetrievalFailures.WithLabelValues(strategy, reason).Inc()
}

// RecordImpression counts one written impression.
func RecordImpression(reasonCode string) {
	ImpressionsRecorded.WithLabelValues(reasonCode).Inc()
}

// RecordSwipe counts one accepted swipe.
func RecordSwipe(action string) {
	SwipesRecorded.WithLabelValues(action).Inc()
}

// RecordModelPromotion counts a current-model change.
func RecordModelPromotion() {
	ModelPromotions.Inc()
}

// SetModelEvalScores publishes offline metrics for a model version.
func SetModelEvalScores(modelVersion string, ndcg, mapAtK, recall float64) {
	ModelEvalScore.WithLabelValues(modelVersion, "ndcg").Set(ndcg)
	ModelEvalScore.WithLabelValues(modelVersion, "map").Set(mapAtK)
	ModelEvalScore.WithLabelValues(modelVersion, "recall").Set(recall)
}

// RecordNeighborRows counts neighbor rows written for a model version.
func RecordNeighborRows(modelVersion string, rows int) {
	NeighborRowsLoaded.WithLabelValues(modelVersion).Add(float64(rows))
}

// RecordRetentionPrune counts rows removed from a table.
func RecordRetentionPrune(table string, rows int64) {
	if rows > 0 {
		RetentionRowsPruned.WithLabelValues(table).Add(float64(rows))
	}
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package api

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/josuejero/ReelSwipe/internal/database"
	"github.com/josuejero/ReelSwipe/internal/logging"
	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// Metrics window bounds, in hours.
const (
	defaultWindowHours = 24
	minWindowHours     = 1
	maxWindowHours     = 72
)

var windowPattern = regexp.MustCompile(`^([0-9]{1,3})h$`)

// MetricsResponse is the body of GET /v1/metrics.
type MetricsResponse struct {
	envelope
	database.WindowMetrics
}

// ModelResponse is the body of GET /v1/admin/model.
type ModelResponse struct {
	envelope
	CurrentModelVersion string                       `json:"current_model_version"`
	KnownModels         []recommend.ModelVersionInfo `json:"known_models"`
}

// PromoteResponse is the body of POST /v1/admin/model.
type PromoteResponse struct {
	envelope
	CurrentModelVersion string `json:"current_model_version"`
}

// SetModelRequest is the body of POST /v1/admin/model.
type SetModelRequest struct {
	ModelVersion string `json:"model_version"`
}

// Metrics reports swipe, impression and latency aggregates over a window.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	window := parseWindow(r.URL.Query().Get("window"))

	m, err := h.store.WindowMetrics(r.Context(), window)
	if err != nil {
		respondInternal(w, r, err, "Failed to compute window metrics")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, r, http.StatusOK, MetricsResponse{
		envelope:      okEnvelope(r),
		WindowMetrics: *m,
	})
}

// parseWindow accepts "<N>h" clamped to 1..72 hours; anything else is 24h.
func parseWindow(raw string) time.Duration {
	hours := defaultWindowHours
	if m := windowPattern.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1]) //nolint:errcheck // pattern guarantees digits
		hours = min(maxWindowHours, max(minWindowHours, n))
	}
	return time.Duration(hours) * time.Hour
}

// GetModel reports the promoted model version and the most recent versions.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, err := h.store.CurrentModelVersion(ctx, h.config.DefaultModelVersion)
	if err != nil {
		respondInternal(w, r, err, "Failed to read current model version")
		return
	}
	known, err := h.store.ListModelVersions(ctx, h.config.KnownModelsLimit)
	if err != nil {
		respondInternal(w, r, err, "Failed to list model versions")
		return
	}
	if known == nil {
		known = []recommend.ModelVersionInfo{}
	}

	writeJSON(w, r, http.StatusOK, ModelResponse{
		envelope:            okEnvelope(r),
		CurrentModelVersion: current,
		KnownModels:         known,
	})
}

// SetModel promotes a registered model version.
func (h *Handler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req SetModelRequest
	_ = decodeJSON(r, &req) //nolint:errcheck // an empty version is reported below
	version := strings.TrimSpace(req.ModelVersion)
	if version == "" {
		respondError(w, r, http.StatusBadRequest, "model_version is required")
		return
	}

	err := h.store.SetCurrentModelVersion(r.Context(), version)
	if errors.Is(err, recommend.ErrUnknownModelVersion) {
		respondError(w, r, http.StatusBadRequest, "unknown model_version")
		return
	}
	if err != nil {
		respondInternal(w, r, err, "Failed to promote model version")
		return
	}

	logging.Ctx(r.Context()).Info().Str("model_version", version).Msg("Model version promoted")
	writeJSON(w, r, http.StatusOK, PromoteResponse{
		envelope:            okEnvelope(r),
		CurrentModelVersion: version,
	})
}

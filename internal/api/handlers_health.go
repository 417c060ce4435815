// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package api

import (
	"net/http"

	"github.com/josuejero/ReelSwipe/internal/logging"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	envelope
	Status string `json:"status"`
	Phase  string `json:"phase"`
}

// Health reports store reachability and the deployment phase.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.store.Ping(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Health check failed")
		respondError(w, r, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	phase, err := h.store.Phase(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to read phase")
		phase = "unknown"
	}

	writeJSON(w, r, http.StatusOK, HealthResponse{
		envelope: okEnvelope(r),
		Status:   "ok",
		Phase:    phase,
	})
}

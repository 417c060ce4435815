// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package api

import (
	"net/http"
	"strings"

	"github.com/josuejero/ReelSwipe/internal/database"
	"github.com/josuejero/ReelSwipe/internal/logging"
)

// ProfileResponse is the body of GET /v1/profile.
type ProfileResponse struct {
	envelope
	SessionID string `json:"session_id"`
	database.SessionProfile
}

// Profile summarizes a session's swipes.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, r, http.StatusBadRequest, msgSessionID)
		return
	}

	ctx := logging.ContextWithSessionID(r.Context(), sessionID)
	profile, err := h.store.ProfileSummary(ctx, sessionID)
	if err != nil {
		respondInternal(w, r.WithContext(ctx), err, "Failed to load profile")
		return
	}

	writeJSON(w, r, http.StatusOK, ProfileResponse{
		envelope:       okEnvelope(r),
		SessionID:      sessionID,
		SessionProfile: *profile,
	})
}

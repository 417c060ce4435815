// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/josuejero/ReelSwipe/internal/logging"
	"github.com/josuejero/ReelSwipe/internal/metrics"
	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// maxRequestedLimit keeps huge query values within int range; the deck
// builder applies the configured bounds.
const maxRequestedLimit = math.MaxInt32

// DeckResponse is the body of GET /v1/deck. DeckID is null and Reason is set
// when the session has nothing left to see.
type DeckResponse struct {
	envelope
	DeckID       *string                 `json:"deck_id"`
	ModelVersion string                  `json:"model_version"`
	Deck         []recommend.RankedMovie `json:"deck"`
	Reason       string                  `json:"reason,omitempty"`
}

// Deck builds and records a ranked deck for a session.
func (h *Handler) Deck(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, r, http.StatusBadRequest, msgSessionID)
		return
	}
	limit := parseDeckLimit(r.URL.Query().Get("limit"))

	ctx := logging.ContextWithSessionID(r.Context(), sessionID)
	mode := h.decks.Mode()
	start := time.Now()

	deck, err := h.decks.BuildDeck(ctx, recommend.DeckRequest{
		SessionID: sessionID,
		Limit:     limit,
		RequestID: logging.RequestIDFromContext(ctx),
	})

	var noCands *recommend.NoCandidatesError
	switch {
	case errors.As(err, &noCands):
		metrics.RecordDeckBuild(mode, "no_candidates", time.Since(start))
		writeJSON(w, r, http.StatusOK, DeckResponse{
			envelope:     okEnvelope(r),
			ModelVersion: noCands.ModelVersion,
			Deck:         []recommend.RankedMovie{},
			Reason:       "no candidates",
		})
	case err != nil:
		metrics.RecordDeckBuild(mode, "error", time.Since(start))
		respondInternal(w, r.WithContext(ctx), err, "Deck build failed")
	default:
		metrics.RecordDeckBuild(mode, "ok", time.Since(start))
		writeJSON(w, r, http.StatusOK, DeckResponse{
			envelope:     okEnvelope(r),
			DeckID:       &deck.DeckID,
			ModelVersion: deck.ModelVersion,
			Deck:         deck.Movies,
		})
	}
}

// parseDeckLimit parses the requested deck size. Missing or unparsable values
// return 0 so the deck builder uses its default; values below 1 become 1.
func parseDeckLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return int(math.Min(maxRequestedLimit, math.Max(1, f)))
}

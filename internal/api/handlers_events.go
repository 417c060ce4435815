// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package api

import (
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/josuejero/ReelSwipe/internal/logging"
	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/josuejero/ReelSwipe/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// IdempotencyKeyHeader overrides the derived swipe event id.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// SwipeRequest is the body of POST /v1/events/swipe.
type SwipeRequest struct {
	SessionID string   `json:"session_id" validate:"required"`
	DeckID    string   `json:"deck_id" validate:"required"`
	MovieID   string   `json:"movie_id" validate:"required"`
	Action    string   `json:"action" validate:"oneof=like skip"`
	TsMs      float64  `json:"ts_ms"`
	DwellMs   *float64 `json:"dwell_ms"`
}

// SwipeResponse is the body of a recorded swipe.
type SwipeResponse struct {
	envelope
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// Swipe records a like or skip. Retries with the same idempotency key, or
// the same (session, deck, movie, action, ts_ms), are acknowledged without
// writing twice.
func (h *Handler) Swipe(w http.ResponseWriter, r *http.Request) {
	var req SwipeRequest
	// A missing or malformed body reports the first required field.
	_ = decodeJSON(r, &req) //nolint:errcheck // validation reports the outcome
	req.trim()

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, http.StatusBadRequest, swipeErrorMessage(verr))
		return
	}

	tsMs := int64(req.TsMs)
	if tsMs <= 0 {
		tsMs = h.now().UnixMilli()
	}
	action := recommend.Action(req.Action)

	eventID := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if eventID == "" {
		eventID = recommend.SwipeEventID(req.SessionID, req.DeckID, req.MovieID, action, tsMs)
	}

	event := recommend.SwipeEvent{
		EventID:   eventID,
		SessionID: req.SessionID,
		DeckID:    req.DeckID,
		MovieID:   req.MovieID,
		Action:    action,
		TsMs:      tsMs,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if req.DwellMs != nil && !math.IsNaN(*req.DwellMs) && !math.IsInf(*req.DwellMs, 0) {
		d := int64(*req.DwellMs)
		event.DwellMs = &d
	}

	ctx := logging.ContextWithSessionID(r.Context(), req.SessionID)
	inserted, err := h.store.RecordSwipe(ctx, event)
	if err != nil {
		respondInternal(w, r.WithContext(ctx), err, "Failed to record swipe")
		return
	}

	writeJSON(w, r, http.StatusOK, SwipeResponse{
		envelope:  okEnvelope(r),
		EventID:   eventID,
		Duplicate: !inserted,
	})
}

func (s *SwipeRequest) trim() {
	s.SessionID = strings.TrimSpace(s.SessionID)
	s.DeckID = strings.TrimSpace(s.DeckID)
	s.MovieID = strings.TrimSpace(s.MovieID)
	s.Action = strings.TrimSpace(s.Action)
}

// swipeErrorMessage reports the first failing field.
func swipeErrorMessage(verr *validation.RequestError) string {
	errs := verr.Errors()
	if len(errs) == 0 {
		return verr.Error()
	}
	if errs[0].Field() == "action" {
		return "action must be like|skip"
	}
	return errs[0].Error()
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return io.EOF
	}
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

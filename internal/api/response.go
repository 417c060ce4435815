// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/josuejero/ReelSwipe/internal/logging"
)

// Error messages returned to clients.
const (
	msgInternal     = "internal error"
	msgUnauthorized = "unauthorized"
	msgNotFound     = "not found"
	msgSessionID    = "session_id is required"
)

// envelope is embedded in every response body.
type envelope struct {
	OK        bool   `json:"ok"`
	RequestID string `json:"request_id"`
}

// APIError is the error object of a failed response.
type APIError struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	envelope
	Error APIError `json:"error"`
}

// okEnvelope returns the success envelope for r.
func okEnvelope(r *http.Request) envelope {
	return envelope{OK: true, RequestID: logging.RequestIDFromContext(r.Context())}
}

// writeJSON encodes body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorBody(r, msgInternal)) //nolint:errcheck // static shape
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data) //nolint:errcheck // client disconnects are not actionable
}

func errorBody(r *http.Request, message string) ErrorResponse {
	return ErrorResponse{
		envelope: envelope{OK: false, RequestID: logging.RequestIDFromContext(r.Context())},
		Error:    APIError{Message: message},
	}
}

// respondError writes a failure with a client-facing message.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorBody(r, message))
}

// respondInternal logs err and writes an opaque 500.
func respondInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.Ctx(r.Context()).Error().Err(err).Msg(msg)
	respondError(w, r, http.StatusInternalServerError, msgInternal)
}

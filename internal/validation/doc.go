// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package validation provides struct validation using go-playground/validator v10
// and the data-quality gate that guards offline training and evaluation.
//
// # Request Validation
//
// A thread-safe singleton validator reports failures by JSON field name:
//
//	type swipeRequest struct {
//	    SessionID string `json:"session_id" validate:"required"`
//	    Action    string `json:"action" validate:"required,oneof=like skip"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    writeError(w, r, http.StatusBadRequest, verr.Error())
//	    return
//	}
//
// # Data-Quality Gate
//
// CheckSnapshot inspects the raw event files of a snapshot before any typed
// decoding. For each file it counts missing required fields, values of the
// wrong type, values outside an allowed set and duplicated keys, and prints
// a diagnostic:
//
//	[DQ] swipe_events.json (1200 rows)
//	[DQ]   event_id: ok
//	[DQ]   action: invalid 2 e.g. "love"
//	[DQ]   duplicates: 0 rows
//
// Any failure returns a *QualityError wrapping ErrDataQuality. Callers abort
// before writing artifacts:
//
//	if _, err := validation.CheckSnapshot(store, id, os.Stdout); err != nil {
//	    return err
//	}
//
// A field is missing when it is absent, null or a blank string. Missing
// optional fields are not type-checked. Numbers accept numeric strings;
// strings accept numbers.
package validation

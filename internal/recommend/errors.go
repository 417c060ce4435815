// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package recommend

import "errors"

var (
	// ErrNoCandidates means the session has nothing left to be shown.
	// It is a defined outcome, not a failure.
	ErrNoCandidates = errors.New("no candidates")

	// ErrAllStrategiesFailed means every retrieval strategy returned an error.
	ErrAllStrategiesFailed = errors.New("all retrieval strategies failed")

	// ErrUnknownModelVersion is returned when promoting a version the
	// registry has never seen.
	ErrUnknownModelVersion = errors.New("unknown model_version")
)

// NoCandidatesError reports an empty deck together with the model version
// that would have served it.
type NoCandidatesError struct {
	ModelVersion string
}

func (e *NoCandidatesError) Error() string {
	return "no candidates for model " + e.ModelVersion
}

// Unwrap lets errors.Is match ErrNoCandidates.
func (e *NoCandidatesError) Unwrap() error {
	return ErrNoCandidates
}

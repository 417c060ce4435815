// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package recommend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImpressionStore persists impressions. Writes are insert-if-absent on
// ImpressionID and return the number of rows actually inserted.
type ImpressionStore interface {
	RecordImpressions(ctx context.Context, rows []Impression) (int, error)
}

// DeckRecord is a finalized deck ready to be recorded.
type DeckRecord struct {
	DeckID       string
	SessionID    string
	ModelVersion string
	RequestID    string
	Time         time.Time
	Movies       []RankedMovie
}

// Recorder writes one impression per ranked movie of a deck.
type Recorder struct {
	store  ImpressionStore
	logger zerolog.Logger
	newID  func() string
}

// NewRecorder creates an impression recorder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecorder(store ImpressionStore, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "impressions").Logger(),
		newID:  uuid.NewString,
	}
}

// Impressions builds the impression rows for a deck. Every call generates
// fresh impression ids.
func (r *Recorder) Impressions(d DeckRecord) []Impression {
	ts := d.Time.UnixMilli()
	rows := make([]Impression, len(d.Movies))
	for i := range d.Movies {
		m := &d.Movies[i]
		rows[i] = Impression{
			ImpressionID: r.newID(),
			DeckID:       d.DeckID,
			SessionID:    d.SessionID,
			MovieID:      m.MovieID,
			Rank:         i + 1,
			ReasonCode:   m.ReasonCode,
			ModelVersion: d.ModelVersion,
			Score:        m.Score,
			TsMs:         ts,
			RequestID:    d.RequestID,
		}
	}
	return rows
}

// Record writes the deck's impressions and returns how many were new.
func (r *Recorder) Record(ctx context.Context, d DeckRecord) (int, error) {
	if len(d.Movies) == 0 {
		return 0, nil
	}
	rows := r.Impressions(d)
	written, err := r.store.RecordImpressions(ctx, rows)
	if err != nil {
		return 0, err
	}
	if written < len(rows) {
		r.logger.Debug().
			Str("deck_id", d.DeckID).
			Int("rows", len(rows)).
			Int("written", written).
			Msg("duplicate impressions ignored")
	}
	return written, nil
}

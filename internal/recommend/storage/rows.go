// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package storage

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// Event files are decoded leniently: the data-quality gate admits numbers
// where strings are expected and numeric strings where numbers are expected,
// so the typed decode coerces the same way.

// flexString accepts a JSON string or number. Numbers keep their literal text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexNumber accepts a JSON number or a string holding one.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("want number, got %q", s)
		}
		*f = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("want number, got %s", b)
	}
	*f = flexNumber(v)
	return nil
}

type swipeRow struct {
	EventID   flexString  `json:"event_id"`
	SessionID flexString  `json:"session_id"`
	DeckID    flexString  `json:"deck_id"`
	MovieID   flexString  `json:"movie_id"`
	Action    flexString  `json:"action"`
	TsMs      flexNumber  `json:"ts_ms"`
	DwellMs   *flexNumber `json:"dwell_ms"`
	RequestID flexString  `json:"request_id"`
}

func (r *swipeRow) event() recommend.SwipeEvent {
	e := recommend.SwipeEvent{
		EventID:   string(r.EventID),
		SessionID: string(r.SessionID),
		DeckID:    string(r.DeckID),
		MovieID:   string(r.MovieID),
		Action:    recommend.Action(r.Action),
		TsMs:      int64(r.TsMs),
		RequestID: string(r.RequestID),
	}
	if r.DwellMs != nil {
		d := int64(*r.DwellMs)
		e.DwellMs = &d
	}
	return e
}

type impressionRow struct {
	ImpressionID flexString `json:"impression_id"`
	DeckID       flexString `json:"deck_id"`
	SessionID    flexString `json:"session_id"`
	MovieID      flexString `json:"movie_id"`
	Rank         flexNumber `json:"rank"`
	ReasonCode   flexString `json:"reason_code"`
	ModelVersion flexString `json:"model_version"`
	Score        flexNumber `json:"score"`
	TsMs         flexNumber `json:"ts_ms"`
	RequestID    flexString `json:"request_id"`
}

func (r *impressionRow) impression() recommend.Impression {
	return recommend.Impression{
		ImpressionID: string(r.ImpressionID),
		DeckID:       string(r.DeckID),
		SessionID:    string(r.SessionID),
		MovieID:      string(r.MovieID),
		Rank:         int(r.Rank),
		ReasonCode:   string(r.ReasonCode),
		ModelVersion: string(r.ModelVersion),
		Score:        float64(r.Score),
		TsMs:         int64(r.TsMs),
		RequestID:    string(r.RequestID),
	}
}

func readSwipes(path string) ([]recommend.SwipeEvent, error) {
	var rows []swipeRow
	if err := readJSON(path, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, nil
	}
	out := make([]recommend.SwipeEvent, len(rows))
	for i := range rows {
		out[i] = rows[i].event()
	}
	return out, nil
}

func readImpressions(path string) ([]recommend.Impression, error) {
	var rows []impressionRow
	if err := readJSON(path, &rows); err != nil {
		return nil, err
	}
	out := make([]recommend.Impression, len(rows))
	for i := range rows {
		out[i] = rows[i].impression()
	}
	return out, nil
}

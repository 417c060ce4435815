// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package validation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/josuejero/ReelSwipe/internal/recommend/storage"
)

// fakeFiles serves snapshot files from memory.
type fakeFiles map[string]string

func (f fakeFiles) ReadRaw(snapshotID, file string) ([]byte, error) {
	s, ok := f[file]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, snapshotID, file)
	}
	return []byte(s), nil
}

const validSwipes = `[
  {"event_id": "e1", "session_id": "s1", "deck_id": "d1", "movie_id": "m1", "action": "like", "ts_ms": 1000, "dwell_ms": 350},
  {"event_id": "e2", "session_id": "s1", "deck_id": "d1", "movie_id": "m2", "action": "skip", "ts_ms": "1001", "dwell_ms": null}
]`

func TestCheckSnapshot_Valid(t *testing.T) {
	var out bytes.Buffer
	reports, err := CheckSnapshot(fakeFiles{storage.FileSwipeEvents: validSwipes}, "snap", &out)
	if err != nil {
		t.Fatalf("CheckSnapshot() error = %v\n%s", err, out.String())
	}
	if len(reports) != 1 || reports[0].Rows != 2 {
		t.Errorf("reports = %+v", reports)
	}
	for _, want := range []string{
		"[DQ] swipe_events.json (2 rows)",
		"[DQ]   action: ok",
		"[DQ]   duplicates: 0 rows",
		"[DQ] missing file recommendation_impressions.json; skipping optional spec",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCheckSnapshot_MissingAction(t *testing.T) {
	files := fakeFiles{storage.FileSwipeEvents: `[
  {"event_id": "e1", "session_id": "s1", "deck_id": "d1", "movie_id": "m1", "ts_ms": 1000},
  {"event_id": "e2", "session_id": "s1", "deck_id": "d1", "movie_id": "m2", "action": "skip", "ts_ms": 1001}
]`}

	var out bytes.Buffer
	_, err := CheckSnapshot(files, "snap", &out)
	if !errors.Is(err, ErrDataQuality) {
		t.Fatalf("CheckSnapshot() error = %v, want ErrDataQuality", err)
	}
	var qe *QualityError
	if !errors.As(err, &qe) {
		t.Fatalf("error %T is not *QualityError", err)
	}
	if !strings.HasPrefix(err.Error(), "Data-quality gate failed:\n  - swipe_events.json: action missing in 1 rows") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !strings.Contains(out.String(), "[DQ]   action: missing 1 (50.00%)") {
		t.Errorf("output = %s", out.String())
	}
}

func TestCheckSnapshot_InvalidValuesAndDuplicates(t *testing.T) {
	files := fakeFiles{storage.FileSwipeEvents: `[
  {"event_id": "e1", "session_id": "s1", "deck_id": "d1", "movie_id": "m1", "action": "love", "ts_ms": "soon"},
  {"event_id": "e1", "session_id": "s1", "deck_id": "d1", "movie_id": "m1", "action": "like", "ts_ms": 5},
  {"event_id": "e1", "session_id": "s1", "deck_id": "d1", "movie_id": "m1", "action": "like", "ts_ms": 6},
  {"event_id": 7, "session_id": "s2", "deck_id": "d2", "movie_id": "m3", "action": true, "ts_ms": 7, "dwell_ms": "x"}
]`}

	var out bytes.Buffer
	reports, err := CheckSnapshot(files, "snap", &out)
	if err == nil {
		t.Fatal("CheckSnapshot() error = nil, want failure")
	}

	r := reports[0]
	byName := make(map[string]FieldStats)
	for _, f := range r.Fields {
		byName[f.Name] = f
	}
	// "love" fails the allowed set; true fails both the type and the set.
	if got := byName["action"].Invalid; got != 3 {
		t.Errorf("action invalid = %d, want 3", got)
	}
	if got := byName["ts_ms"].Invalid; got != 1 {
		t.Errorf("ts_ms invalid = %d, want 1", got)
	}
	if got := byName["dwell_ms"].Invalid; got != 1 {
		t.Errorf("dwell_ms invalid = %d, want 1", got)
	}
	if r.DuplicateRows != 2 {
		t.Errorf("DuplicateRows = %d, want 2", r.DuplicateRows)
	}
	if len(r.DuplicateSamples) != 1 || r.DuplicateSamples[0] != (KeyCount{Key: "e1", Count: 3}) {
		t.Errorf("DuplicateSamples = %+v", r.DuplicateSamples)
	}

	for _, want := range []string{
		`[DQ]   action: invalid 3 e.g. "love"`,
		"[DQ]   duplicates: 2 rows (50.00%); samples: e1 (3)",
		"swipe_events.json: 2 duplicate keys",
	} {
		if !strings.Contains(out.String()+err.Error(), want) {
			t.Errorf("output missing %q:\n%s\n%s", want, out.String(), err.Error())
		}
	}
}

func TestCheckSnapshot_FileErrors(t *testing.T) {
	tests := []struct {
		name  string
		files fakeFiles
		want  string
	}{
		{"missing required file", fakeFiles{}, "[DQ] missing file swipe_events.json"},
		{"invalid json", fakeFiles{storage.FileSwipeEvents: "{"}, "swipe_events.json: invalid JSON"},
		{"not an array", fakeFiles{storage.FileSwipeEvents: `{"a": 1}`}, "swipe_events.json: expected an array of events"},
		{
			"bad impression",
			fakeFiles{
				storage.FileSwipeEvents: validSwipes,
				storage.FileImpressions: `[{"impression_id": "i1", "deck_id": "d1", "session_id": "s1", "movie_id": "m1", "rank": "first", "reason_code": "hybrid_cf", "ts_ms": 1}]`,
			},
			"recommendation_impressions.json: rank invalid in 1 rows",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := CheckSnapshot(tt.files, "snap", &out)
			if !errors.Is(err, ErrDataQuality) {
				t.Fatalf("CheckSnapshot() error = %v, want ErrDataQuality", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestCheckSnapshot_WithArtifactStore(t *testing.T) {
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	_, err = store.WriteSnapshot(context.Background(), &storage.Snapshot{
		Manifest: storage.Manifest{SnapshotID: "snap"},
		Swipes: []recommend.SwipeEvent{
			{EventID: "e1", SessionID: "s1", DeckID: "d1", MovieID: "m1", Action: recommend.ActionLike, TsMs: 1},
			{EventID: "e2", SessionID: "s1", DeckID: "d1", MovieID: "m2", Action: "", TsMs: 2},
		},
		Impressions: []recommend.Impression{
			{ImpressionID: "i1", DeckID: "d1", SessionID: "s1", MovieID: "m1", Rank: 1, ReasonCode: recommend.ReasonCF, TsMs: 1},
		},
	})
	if err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}

	var out bytes.Buffer
	reports, err := CheckSnapshot(store, "snap", &out)
	if !errors.Is(err, ErrDataQuality) {
		t.Fatalf("CheckSnapshot() error = %v, want ErrDataQuality", err)
	}
	if len(reports) != 2 {
		t.Errorf("reports = %d, want 2", len(reports))
	}
	if !strings.Contains(err.Error(), "swipe_events.json: action missing in 1 rows") {
		t.Errorf("Error() = %q", err.Error())
	}
}

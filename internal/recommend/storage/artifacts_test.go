// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := &Snapshot{
		Manifest: Manifest{SnapshotID: "2026-10-01", CreatedAt: "2026-10-01T00:00:00.000Z"},
		Swipes: []recommend.SwipeEvent{
			{EventID: "e1", SessionID: "s1", DeckID: "d1", MovieID: "m1", Action: recommend.ActionLike, TsMs: 10},
		},
		Movies:      []recommend.Movie{{MovieID: "m1", Title: "Heat", Source: recommend.SourceOrganic}},
		MovieGenres: []recommend.MovieGenre{{MovieID: "m1", GenreID: 80}},
		Genres:      []recommend.Genre{{GenreID: 80, Name: "Crime"}},
	}

	m, err := store.WriteSnapshot(ctx, snap)
	if err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}
	if m.Counts["swipe_events"] != 1 || m.Counts["tmdb_genres"] != 1 {
		t.Errorf("Counts = %v", m.Counts)
	}
	if len(m.Files) != 5 || m.Files[len(m.Files)-1] != FileManifest {
		t.Errorf("Files = %v, want 4 tables plus manifest", m.Files)
	}

	got, err := store.ReadSnapshot(ctx, "2026-10-01")
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	if len(got.Swipes) != 1 || got.Swipes[0].Action != recommend.ActionLike {
		t.Errorf("Swipes = %+v", got.Swipes)
	}
	if got.Impressions != nil {
		t.Errorf("Impressions = %v, want nil without impressions file", got.Impressions)
	}
	if got.Manifest.CreatedAt != "2026-10-01T00:00:00.000Z" {
		t.Errorf("CreatedAt = %q", got.Manifest.CreatedAt)
	}
}

func TestStore_SnapshotWithImpressions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m, err := store.WriteSnapshot(ctx, &Snapshot{
		Manifest:    Manifest{SnapshotID: "snap"},
		Impressions: []recommend.Impression{{ImpressionID: "i1", DeckID: "d1", Rank: 1}},
	})
	if err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}
	if m.Counts["recommendation_impressions"] != 1 || m.CreatedAt == "" {
		t.Errorf("manifest = %+v", m)
	}

	// Empty tables are written as arrays so the DQ gate sees zero rows.
	raw, err := store.ReadRaw("snap", FileSwipeEvents)
	if err != nil {
		t.Fatalf("ReadRaw() error = %v", err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("ReadRaw() = %q, want []", raw)
	}

	got, err := store.ReadSnapshot(ctx, "snap")
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	if len(got.Impressions) != 1 {
		t.Errorf("Impressions = %v, want 1 row", got.Impressions)
	}
}

func TestStore_WriteSnapshotRequiresID(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.WriteSnapshot(context.Background(), &Snapshot{}); err == nil {
		t.Error("WriteSnapshot() error = nil, want error for missing id")
	}
}

func TestStore_ReadSnapshotMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ReadSnapshot(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadSnapshot() error = %v, want ErrNotFound", err)
	}
	if _, err := store.ReadRaw("nope", FileSwipeEvents); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadRaw() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ModelAndEval(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	info := recommend.NeighborModel{
		ModelVersion: "cf_v1",
		SnapshotID:   "snap",
		Algo:         recommend.CFAlgo,
		Params:       recommend.ModelParams{K: 30, MinCo: 2, Shrink: 10, SessionLikeCap: 30},
	}
	neighbors := []recommend.Neighbor{{MovieID: "a", NeighborMovieID: "b", Score: 0.5}}
	if err := store.WriteModel(ctx, info, neighbors); err != nil {
		t.Fatalf("WriteModel() error = %v", err)
	}

	gotInfo, gotNeighbors, err := store.ReadModel(ctx, "cf_v1")
	if err != nil {
		t.Fatalf("ReadModel() error = %v", err)
	}
	if gotInfo.Params.K != 30 || gotInfo.Algo != recommend.CFAlgo {
		t.Errorf("info = %+v", gotInfo)
	}
	if len(gotNeighbors) != 1 || gotNeighbors[0].Score != 0.5 {
		t.Errorf("neighbors = %+v", gotNeighbors)
	}

	if _, err := store.ReadEval(ctx, "cf_v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadEval() before evaluation error = %v, want ErrNotFound", err)
	}

	report := &recommend.EvalReport{ModelVersion: "cf_v1", Eval: recommend.EvalMetrics{K: 10, NDCGAtK: 0.4}}
	if err := store.WriteEval(ctx, report, "# report\n"); err != nil {
		t.Fatalf("WriteEval() error = %v", err)
	}
	gotReport, err := store.ReadEval(ctx, "cf_v1")
	if err != nil {
		t.Fatalf("ReadEval() error = %v", err)
	}
	if gotReport.Eval.NDCGAtK != 0.4 {
		t.Errorf("NDCGAtK = %v, want 0.4", gotReport.Eval.NDCGAtK)
	}

	md, err := os.ReadFile(filepath.Join(store.ModelDir("cf_v1"), FileReport))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if string(md) != "# report\n" {
		t.Errorf("report = %q", md)
	}
}

func TestStore_ModelJSONKeys(t *testing.T) {
	store := newTestStore(t)
	info := recommend.NeighborModel{ModelVersion: "cf_v2", Params: recommend.ModelParams{MinCo: 3}}
	if err := store.WriteModel(context.Background(), info, nil); err != nil {
		t.Fatalf("WriteModel() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(store.ModelDir("cf_v2"), FileModel))
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	for _, want := range []string{`"minCo": 3`, `"model_version": "cf_v2"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("model.json missing %q:\n%s", want, data)
		}
	}
	neighbors, err := os.ReadFile(filepath.Join(store.ModelDir("cf_v2"), FileNeighbors))
	if err != nil {
		t.Fatalf("read neighbors: %v", err)
	}
	if strings.TrimSpace(string(neighbors)) != "[]" {
		t.Errorf("neighbors.json = %q, want []", neighbors)
	}
}

func TestStore_ListModels(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	versions, err := store.ListModels(ctx)
	if err != nil || len(versions) != 0 {
		t.Fatalf("ListModels() on empty store = %v, %v", versions, err)
	}

	for _, v := range []string{"cf_v2", "cf_v1"} {
		if err := store.WriteModel(ctx, recommend.NeighborModel{ModelVersion: v}, nil); err != nil {
			t.Fatalf("WriteModel(%s) error = %v", v, err)
		}
	}
	versions, err = store.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(versions) != 2 || versions[0] != "cf_v1" {
		t.Errorf("ListModels() = %v, want [cf_v1 cf_v2]", versions)
	}
}

func TestStore_ReadSnapshotCoercesEventFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.WriteSnapshot(ctx, &Snapshot{Manifest: Manifest{SnapshotID: "loose"}}); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}
	dir := store.SnapshotDir("loose")
	swipes := `[{"event_id":"e1","session_id":"s","deck_id":"d","movie_id":42,"action":"like","ts_ms":"1700000000000","dwell_ms":null}]`
	impressions := `[{"impression_id":"i1","deck_id":"d","session_id":"s","movie_id":7,"rank":"2","reason_code":"cf","score":"0.5","ts_ms":10}]`
	if err := os.WriteFile(filepath.Join(dir, FileSwipeEvents), []byte(swipes), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileImpressions), []byte(impressions), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadSnapshot(ctx, "loose")
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	e := got.Swipes[0]
	if e.MovieID != "42" || e.TsMs != 1_700_000_000_000 || e.DwellMs != nil {
		t.Errorf("swipe = %+v, want movie 42 at 1700000000000", e)
	}
	imp := got.Impressions[0]
	if imp.MovieID != "7" || imp.Rank != 2 || imp.Score != 0.5 {
		t.Errorf("impression = %+v", imp)
	}

	bad := `[{"event_id":"e1","movie_id":"m","ts_ms":"soon"}]`
	if err := os.WriteFile(filepath.Join(dir, FileSwipeEvents), []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ReadSnapshot(ctx, "loose"); err == nil {
		t.Error("ReadSnapshot(bad ts_ms) error = nil, want decode error")
	}
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeStore implements DataProvider and ImpressionStore in memory.
type fakeStore struct {
	mu          sync.Mutex
	current     string
	names       map[string][]string
	ids         map[string][]int
	prefs       GenrePrefs
	baseline    []Candidate
	impressions map[string]Impression
	failWrites  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		names:       map[string][]string{},
		ids:         map[string][]int{},
		prefs:       GenrePrefs{},
		impressions: map[string]Impression{},
	}
}

func (f *fakeStore) CurrentModelVersion(_ context.Context, fallback string) (string, error) {
	if f.current == "" {
		return fallback, nil
	}
	return f.current, nil
}

func (f *fakeStore) GenreNamesForMovies(_ context.Context, movieIDs []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, id := range movieIDs {
		out[id] = f.names[id]
	}
	return out, nil
}

func (f *fakeStore) GenreIDsForMovies(_ context.Context, movieIDs []string) (map[string][]int, error) {
	out := map[string][]int{}
	for _, id := range movieIDs {
		out[id] = f.ids[id]
	}
	return out, nil
}

func (f *fakeStore) GenrePrefs(context.Context, string) (GenrePrefs, error) {
	return f.prefs, nil
}

func (f *fakeStore) BaselineCandidates(_ context.Context, _ string, limit int) ([]Candidate, error) {
	if len(f.baseline) > limit {
		return f.baseline[:limit], nil
	}
	return f.baseline, nil
}

func (f *fakeStore) RecordImpressions(_ context.Context, rows []Impression) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return 0, errors.New("disk full")
	}
	n := 0
	for _, r := range rows {
		if _, ok := f.impressions[r.ImpressionID]; ok {
			continue
		}
		f.impressions[r.ImpressionID] = r
		n++
	}
	return n, nil
}

type fakeRetriever struct {
	candidates []Candidate
	err        error
	got        RetrievalRequest
}

func (f *fakeRetriever) Retrieve(_ context.Context, req RetrievalRequest) ([]Candidate, error) {
	f.got = req
	return f.candidates, f.err
}

// orderRanker keeps retrieval order and truncates to the limit.
type orderRanker struct{ reason string }

func (o orderRanker) Name() string { return o.reason }

func (o orderRanker) Rank(in RankInput) []RankedMovie {
	out := make([]RankedMovie, 0, in.Limit)
	for i, c := range in.Candidates {
		if i == in.Limit {
			break
		}
		out = append(out, RankedMovie{MovieID: c.MovieID, Title: c.Title, Genres: in.GenreNames[c.MovieID], ReasonCode: o.reason, Score: 1})
	}
	return out
}

func newTestEngine(t *testing.T, cfg *Config, store *fakeStore, retriever CandidateRetriever) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, zerolog.Nop(), Dependencies{
		Retriever: retriever,
		Data:      store,
		Recorder:  NewRecorder(store, zerolog.Nop()),
		TwoStage:  orderRanker{reason: ReasonPopularRecent},
		Baseline:  orderRanker{reason: ReasonBaselineMix},
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return e
}

func candidates(ids ...string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate{MovieID: id, Title: "Movie " + id, Source: SourceOrganic}
	}
	return out
}

func TestBuildDeckTwoStage(t *testing.T) {
	store := newFakeStore()
	store.current = "cf_v7"
	retriever := &fakeRetriever{candidates: candidates("m1", "m2", "m3")}
	e := newTestEngine(t, nil, store, retriever)

	deck, err := e.BuildDeck(context.Background(), DeckRequest{SessionID: "s1", Limit: 2, RequestID: "req-1"})
	if err != nil {
		t.Fatalf("BuildDeck() error = %v", err)
	}
	if deck.ModelVersion != "cf_v7" {
		t.Errorf("ModelVersion = %q, want cf_v7", deck.ModelVersion)
	}
	if len(deck.Movies) != 2 {
		t.Fatalf("len(Movies) = %d, want 2", len(deck.Movies))
	}
	if deck.DeckID == "" {
		t.Error("DeckID is empty")
	}
	if retriever.got.Limit != 220 {
		t.Errorf("retrieval limit = %d, want 220", retriever.got.Limit)
	}
	if retriever.got.ModelVersion != "cf_v7" {
		t.Errorf("retrieval model version = %q, want cf_v7", retriever.got.ModelVersion)
	}

	if len(store.impressions) != 2 {
		t.Fatalf("impressions = %d, want 2", len(store.impressions))
	}
	ranks := map[int]string{}
	for _, imp := range store.impressions {
		if imp.DeckID != deck.DeckID || imp.SessionID != "s1" || imp.ModelVersion != "cf_v7" || imp.RequestID != "req-1" {
			t.Errorf("impression = %+v, not tagged with deck/session/model/request", imp)
		}
		if imp.TsMs != 1_700_000_000_000 {
			t.Errorf("TsMs = %d, want 1700000000000", imp.TsMs)
		}
		ranks[imp.Rank] = imp.MovieID
	}
	if ranks[1] != "m1" || ranks[2] != "m2" {
		t.Errorf("ranks = %v, want 1:m1 2:m2", ranks)
	}
}

func TestBuildDeckDefaultModelVersion(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, nil, store, &fakeRetriever{candidates: candidates("m1")})

	deck, err := e.BuildDeck(context.Background(), DeckRequest{SessionID: "s1"})
	if err != nil {
		t.Fatalf("BuildDeck() error = %v", err)
	}
	if deck.ModelVersion != DefaultModelVersion {
		t.Errorf("ModelVersion = %q, want %q", deck.ModelVersion, DefaultModelVersion)
	}
}

func TestBuildDeckNoCandidates(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, nil, store, &fakeRetriever{})

	_, err := e.BuildDeck(context.Background(), DeckRequest{SessionID: "s1"})
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("BuildDeck() error = %v, want ErrNoCandidates", err)
	}
	var nc *NoCandidatesError
	if !errors.As(err, &nc) || nc.ModelVersion != DefaultModelVersion {
		t.Errorf("BuildDeck() error = %#v, want NoCandidatesError for %s", err, DefaultModelVersion)
	}
	if len(store.impressions) != 0 {
		t.Errorf("impressions = %d, want 0", len(store.impressions))
	}
}

func TestBuildDeckRetrievalFailure(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, nil, store, &fakeRetriever{err: ErrAllStrategiesFailed})

	_, err := e.BuildDeck(context.Background(), DeckRequest{SessionID: "s1"})
	if !errors.Is(err, ErrAllStrategiesFailed) {
		t.Errorf("BuildDeck() error = %v, want ErrAllStrategiesFailed", err)
	}
}

func TestBuildDeckRecordFailure(t *testing.T) {
	store := newFakeStore()
	store.failWrites = true
	e := newTestEngine(t, nil, store, &fakeRetriever{candidates: candidates("m1")})

	if _, err := e.BuildDeck(context.Background(), DeckRequest{SessionID: "s1"}); err == nil {
		t.Error("BuildDeck() error = nil, want impression write error")
	}
}

func TestBuildDeckBaseline(t *testing.T) {
	store := newFakeStore()
	store.current = "cf_v7"
	store.baseline = candidates("b1", "b2", "b3")
	cfg := DefaultConfig()
	cfg.Mode = ModeBaseline
	e := newTestEngine(t, cfg, store, nil)

	deck, err := e.BuildDeck(context.Background(), DeckRequest{SessionID: "s1", Limit: 5})
	if err != nil {
		t.Fatalf("BuildDeck() error = %v", err)
	}
	if deck.ModelVersion != BaselineModelVersion {
		t.Errorf("ModelVersion = %q, want %q", deck.ModelVersion, BaselineModelVersion)
	}
	if len(deck.Movies) != 3 {
		t.Errorf("len(Movies) = %d, want 3", len(deck.Movies))
	}
	for _, m := range deck.Movies {
		if m.ReasonCode != ReasonBaselineMix {
			t.Errorf("ReasonCode = %q, want %q", m.ReasonCode, ReasonBaselineMix)
		}
	}
}

func TestBuildDeckRequiresSession(t *testing.T) {
	e := newTestEngine(t, nil, newFakeStore(), &fakeRetriever{candidates: candidates("m1")})
	if _, err := e.BuildDeck(context.Background(), DeckRequest{}); err == nil {
		t.Error("BuildDeck() error = nil, want error for empty session")
	}
}

func TestNewEngineValidatesDependencies(t *testing.T) {
	store := newFakeStore()
	_, err := NewEngine(nil, zerolog.Nop(), Dependencies{Data: store, Recorder: NewRecorder(store, zerolog.Nop())})
	if err == nil {
		t.Error("NewEngine() error = nil, want error for missing retriever")
	}
}

func TestBuildDeckUsesConfiguredLimits(t *testing.T) {
	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%03d", i)
	}
	cfg := DefaultConfig()
	cfg.Deck = DeckConfig{DefaultLimit: 3, MaxLimit: 100}

	tests := []struct {
		requested, want int
	}{
		{0, 3},
		{80, 80},
		{500, 100},
	}
	for _, tt := range tests {
		e := newTestEngine(t, cfg, newFakeStore(), &fakeRetriever{candidates: candidates(ids...)})
		deck, err := e.BuildDeck(context.Background(), DeckRequest{SessionID: "s1", Limit: tt.requested})
		if err != nil {
			t.Fatalf("BuildDeck(%d) error = %v", tt.requested, err)
		}
		if len(deck.Movies) != tt.want {
			t.Errorf("BuildDeck(%d) size = %d, want %d", tt.requested, len(deck.Movies), tt.want)
		}
	}
}

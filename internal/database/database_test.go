// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/josuejero/ReelSwipe/internal/config"
	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// testDBSemaphore limits concurrent database creation to prevent resource exhaustion in CI.
// DuckDB CGO calls can hang when many connections run at once, so only one
// test holds a database at any time.
var testDBSemaphore = make(chan struct{}, 1)

// testDBMutex serializes the New() call itself.
var testDBMutex sync.Mutex

// testNow is the fixed clock of store tests.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestDB creates a new in-memory test database with timeout protection.
// The semaphore is held until the test completes and released by t.Cleanup.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		res.db.now = func() time.Time { return testNow }
		t.Cleanup(func() { _ = res.db.Close() })
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s (DuckDB may be under resource pressure)")
		return nil
	}
}

// seedCatalog loads movies m1..m5 and three genres:
// m1 Action, m2 Action+Comedy, m3 Comedy, m4 Drama, m5 none.
func seedCatalog(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	year := 1999
	poster := "https://img.example/m1.jpg"
	movies := []recommend.Movie{
		{MovieID: "m1", Title: "One", Year: &year, PosterURL: &poster},
		{MovieID: "m2", Title: "Two"},
		{MovieID: "m3", Title: "Three", Source: recommend.SourceTrending},
		{MovieID: "m4", Title: "Four"},
		{MovieID: "m5", Title: "Five"},
	}
	if err := db.UpsertMovies(ctx, movies); err != nil {
		t.Fatalf("UpsertMovies() error = %v", err)
	}
	genres := []recommend.Genre{{GenreID: 28, Name: "Action"}, {GenreID: 35, Name: "Comedy"}, {GenreID: 18, Name: "Drama"}}
	if err := db.UpsertGenres(ctx, genres); err != nil {
		t.Fatalf("UpsertGenres() error = %v", err)
	}
	links := map[string][]int{"m1": {28}, "m2": {28, 35}, "m3": {35}, "m4": {18}}
	if err := db.SetMovieGenres(ctx, links); err != nil {
		t.Fatalf("SetMovieGenres() error = %v", err)
	}
}

// swipe records a swipe at testNow minus ago.
func swipe(t *testing.T, db *DB, session, movie string, action recommend.Action, ago time.Duration) {
	t.Helper()
	ts := testNow.Add(-ago).UnixMilli()
	_, err := db.RecordSwipe(context.Background(), recommend.SwipeEvent{
		EventID:   recommend.SwipeEventID(session, "d", movie, action, ts),
		SessionID: session,
		DeckID:    "d",
		MovieID:   movie,
		Action:    action,
		TsMs:      ts,
	})
	if err != nil {
		t.Fatalf("RecordSwipe() error = %v", err)
	}
}

func movieIDs(cands []recommend.Candidate) []string {
	out := make([]string, len(cands))
	for i := range cands {
		out[i] = cands[i].MovieID
	}
	return out
}

func TestNew_CreatesSchema(t *testing.T) {
	db := setupTestDB(t)

	counts, err := db.TableCounts(context.Background())
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	for _, table := range []string{"swipe_events", "recommendation_impressions", "movies", "movie_genres", "tmdb_genres"} {
		if n, ok := counts[table]; !ok || n != 0 {
			t.Errorf("counts[%s] = %d, %v; want 0, true", table, n, ok)
		}
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNew_FileDatabaseReopens(t *testing.T) {
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	path := filepath.Join(t.TempDir(), "nested", "reelswipe.duckdb")
	cfg := &config.DatabaseConfig{Path: path, MaxMemory: "256MB", Threads: 1}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.UpsertGenres(context.Background(), []recommend.Genre{{GenreID: 1, Name: "A"}}); err != nil {
		t.Fatalf("UpsertGenres() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err = New(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()
	if db.GetDatabasePath() != path {
		t.Errorf("GetDatabasePath() = %q, want %q", db.GetDatabasePath(), path)
	}
	counts, err := db.TableCounts(context.Background())
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	if counts["tmdb_genres"] != 1 {
		t.Errorf("tmdb_genres = %d, want 1", counts["tmdb_genres"])
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		start, n int
		want     string
	}{
		{1, 0, ""},
		{1, 1, "$1"},
		{3, 3, "$3, $4, $5"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.start, tt.n); got != tt.want {
			t.Errorf("placeholders(%d, %d) = %q, want %q", tt.start, tt.n, got, tt.want)
		}
	}
}

func TestIsTransactionConflict(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errString("TransactionContext Error: Transaction conflict: cannot update"), true},
		{errString("Constraint Error: Conflict on update"), true},
		{errString("Binder Error: column not found"), false},
	}
	for _, tt := range tests {
		if got := isTransactionConflict(tt.err); got != tt.want {
			t.Errorf("isTransactionConflict(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestPhase(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.Phase(ctx)
	if err != nil {
		t.Fatalf("Phase() error = %v", err)
	}
	if got != "unknown" {
		t.Errorf("Phase() = %q, want unknown", got)
	}

	if err := db.SetPhase(ctx, "phase-3"); err != nil {
		t.Fatalf("SetPhase() error = %v", err)
	}
	if got, _ := db.Phase(ctx); got != "phase-3" {
		t.Errorf("Phase() = %q, want phase-3", got)
	}
}

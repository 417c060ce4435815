// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package database

import (
	"context"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/josuejero/ReelSwipe/internal/recommend"
)

const day = 24 * time.Hour

func TestPopularRecent_OrdersBySmoothedRate(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	// Other sessions: m2 liked twice, m3 liked once and skipped once,
	// m4 skipped twice. The m1 like is outside the window.
	swipe(t, db, "a", "m2", recommend.ActionLike, time.Hour)
	swipe(t, db, "b", "m2", recommend.ActionLike, time.Hour)
	swipe(t, db, "a", "m3", recommend.ActionLike, time.Hour)
	swipe(t, db, "b", "m3", recommend.ActionSkip, time.Hour)
	swipe(t, db, "a", "m4", recommend.ActionSkip, time.Hour)
	swipe(t, db, "b", "m4", recommend.ActionSkip, time.Hour)
	swipe(t, db, "a", "m1", recommend.ActionLike, 30*day)

	cands, err := db.PopularRecent(ctx, "s", testNow.Add(-14*day), 10)
	if err != nil {
		t.Fatalf("PopularRecent() error = %v", err)
	}
	// m2 = 3/4, m3 = 2/4 with volume 2, m1 and m5 = 1/2 with volume 0, m4 = 1/4.
	want := []string{"m2", "m3", "m1", "m5", "m4"}
	if got := movieIDs(cands); !reflect.DeepEqual(got, want) {
		t.Errorf("PopularRecent() = %v, want %v", got, want)
	}
	if cands[0].LikesRecent != 2 || cands[0].SkipsRecent != 0 {
		t.Errorf("m2 counts = %d/%d, want 2/0", cands[0].LikesRecent, cands[0].SkipsRecent)
	}
	if cands[1].Source != recommend.SourceTrending {
		t.Errorf("m3 source = %q, want %q", cands[1].Source, recommend.SourceTrending)
	}
	if cands[2].Year == nil || *cands[2].Year != 1999 || cands[2].PosterURL == nil {
		t.Errorf("m1 year/poster not scanned: %+v", cands[2])
	}
}

func TestRetrieval_ExcludesSeenSet(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	swipe(t, db, "s", "m1", recommend.ActionLike, time.Hour)
	_, err := db.RecordImpressions(ctx, []recommend.Impression{
		{ImpressionID: "i1", DeckID: "d1", SessionID: "s", MovieID: "m2", Rank: 1, ReasonCode: recommend.ReasonCF, TsMs: 1},
	})
	if err != nil {
		t.Fatalf("RecordImpressions() error = %v", err)
	}

	cutoff := testNow.Add(-14 * day)
	buckets := map[string]func() ([]recommend.Candidate, error){
		"popular": func() ([]recommend.Candidate, error) { return db.PopularRecent(ctx, "s", cutoff, 50) },
		"genre":   func() ([]recommend.Candidate, error) { return db.GenreMatch(ctx, "s", []int{28, 35, 18}, cutoff, 50) },
		"explore": func() ([]recommend.Candidate, error) { return db.Explore(ctx, "s", cutoff, 7, 50) },
	}
	for name, fetch := range buckets {
		t.Run(name, func(t *testing.T) {
			cands, err := fetch()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			for _, id := range movieIDs(cands) {
				if id == "m1" || id == "m2" {
					t.Errorf("seen movie %s returned", id)
				}
			}
			if len(cands) == 0 {
				t.Error("no candidates returned")
			}
		})
	}

	// The same movies are still eligible for a different session.
	cands, err := db.PopularRecent(ctx, "other", cutoff, 50)
	if err != nil {
		t.Fatalf("PopularRecent() error = %v", err)
	}
	if len(cands) != 5 {
		t.Errorf("other session candidates = %d, want 5", len(cands))
	}
}

func TestTopGenresAndGenreMatch(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	// Action: +2 (m1, m2 liked). Comedy: +1 -1 = 0. Drama: -1.
	swipe(t, db, "s", "m1", recommend.ActionLike, time.Hour)
	swipe(t, db, "s", "m2", recommend.ActionLike, time.Hour)
	swipe(t, db, "s", "m3", recommend.ActionSkip, time.Hour)
	swipe(t, db, "s", "m4", recommend.ActionSkip, time.Hour)

	top, err := db.TopGenres(ctx, "s", 2)
	if err != nil {
		t.Fatalf("TopGenres() error = %v", err)
	}
	if want := []int{28, 35}; !reflect.DeepEqual(top, want) {
		t.Errorf("TopGenres() = %v, want %v", top, want)
	}
	if got, _ := db.TopGenres(ctx, "s", 0); got != nil {
		t.Errorf("TopGenres(n=0) = %v, want nil", got)
	}

	prefs, err := db.GenrePrefs(ctx, "s")
	if err != nil {
		t.Fatalf("GenrePrefs() error = %v", err)
	}
	want := recommend.GenrePrefs{28: 2, 35: 0, 18: -1}
	if !reflect.DeepEqual(prefs, want) {
		t.Errorf("GenrePrefs() = %v, want %v", prefs, want)
	}

	// Fresh session: m2 carries both genres so it ranks first.
	cands, err := db.GenreMatch(ctx, "fresh", []int{28, 35}, testNow.Add(-14*day), 10)
	if err != nil {
		t.Fatalf("GenreMatch() error = %v", err)
	}
	ids := movieIDs(cands)
	if len(ids) != 3 || ids[0] != "m2" {
		t.Errorf("GenreMatch() = %v, want m2 first of 3", ids)
	}
	if got, _ := db.GenreMatch(ctx, "fresh", nil, testNow, 10); got != nil {
		t.Errorf("GenreMatch(no genres) = %v, want nil", got)
	}
}

func TestExplore_DeterministicForSeed(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()
	cutoff := testNow.Add(-14 * day)

	a, err := db.Explore(ctx, "s", cutoff, 42, 3)
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	b, err := db.Explore(ctx, "s", cutoff, 42, 3)
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if len(a) != 3 {
		t.Fatalf("Explore() returned %d, want 3", len(a))
	}
	if !reflect.DeepEqual(movieIDs(a), movieIDs(b)) {
		t.Errorf("same seed gave %v then %v", movieIDs(a), movieIDs(b))
	}
}

func TestRecentLikedMoviesAndCFNeighbors(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	swipe(t, db, "s", "m1", recommend.ActionLike, 3*time.Hour)
	swipe(t, db, "s", "m3", recommend.ActionSkip, 2*time.Hour)
	swipe(t, db, "s", "m2", recommend.ActionLike, time.Hour)

	liked, err := db.RecentLikedMovies(ctx, "s", 20)
	if err != nil {
		t.Fatalf("RecentLikedMovies() error = %v", err)
	}
	if want := []string{"m2", "m1"}; !reflect.DeepEqual(liked, want) {
		t.Errorf("RecentLikedMovies() = %v, want %v", liked, want)
	}

	_, err = db.LoadModel(ctx, &LoadModelRequest{
		Info: recommend.NeighborModel{ModelVersion: "v1", Algo: recommend.CFAlgo, CreatedAtMs: 1},
		Neighbors: []recommend.Neighbor{
			{MovieID: "m1", NeighborMovieID: "m4", Score: 0.5},
			{MovieID: "m2", NeighborMovieID: "m4", Score: 0.25},
			{MovieID: "m2", NeighborMovieID: "m5", Score: 0.6},
			{MovieID: "m1", NeighborMovieID: "m3", Score: 0.9}, // seen
			{MovieID: "m4", NeighborMovieID: "m5", Score: 5},   // not a seed
		},
	})
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	swipe(t, db, "o", "m4", recommend.ActionLike, 2*time.Hour)
	swipe(t, db, "o", "m4", recommend.ActionLike, 20*day)

	cutoff := testNow.Add(-day)
	cands, err := db.CFNeighbors(ctx, "s", "v1", liked, cutoff, 10)
	if err != nil {
		t.Fatalf("CFNeighbors() error = %v", err)
	}
	if want := []string{"m4", "m5"}; !reflect.DeepEqual(movieIDs(cands), want) {
		t.Fatalf("CFNeighbors() = %v, want %v", movieIDs(cands), want)
	}
	if cands[0].CFScore != 0.75 || cands[0].Source != recommend.SourceCFNeighbors {
		t.Errorf("m4 = %+v, want cf_score 0.75 from cf_neighbors", cands[0])
	}
	if cands[0].LikesRecent != 1 {
		t.Errorf("m4 likes within a day = %d, want 1", cands[0].LikesRecent)
	}
	wide, err := db.CFNeighbors(ctx, "s", "v1", liked, testNow.Add(-30*day), 10)
	if err != nil || len(wide) == 0 || wide[0].LikesRecent != 2 {
		t.Errorf("CFNeighbors(30 day cutoff) = %+v, %v; want m4 with 2 likes", wide, err)
	}

	other, err := db.CFNeighbors(ctx, "s", "v2", liked, cutoff, 10)
	if err != nil || len(other) != 0 {
		t.Errorf("CFNeighbors(unknown version) = %v, %v; want empty", other, err)
	}
	if got, _ := db.CFNeighbors(ctx, "s", "v1", nil, cutoff, 10); got != nil {
		t.Errorf("CFNeighbors(no likes) = %v, want nil", got)
	}
}

func TestBaselineCandidates(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	swipe(t, db, "a", "m3", recommend.ActionLike, 100*day)
	swipe(t, db, "b", "m3", recommend.ActionLike, 100*day)
	swipe(t, db, "a", "m4", recommend.ActionLike, time.Hour)
	swipe(t, db, "b", "m4", recommend.ActionSkip, time.Hour)
	swipe(t, db, "s", "m1", recommend.ActionSkip, time.Hour)

	cands, err := db.BaselineCandidates(ctx, "s", 1)
	if err != nil {
		t.Fatalf("BaselineCandidates() error = %v", err)
	}
	ids := movieIDs(cands)
	if slices.Contains(ids, "m1") {
		t.Errorf("swiped movie returned: %v", ids)
	}
	// The pool is at least 100, so the limit of 1 does not truncate.
	if len(ids) != 4 || ids[0] != "m3" || ids[1] != "m4" {
		t.Errorf("BaselineCandidates() = %v, want m3, m4 first of 4", ids)
	}
	if cands[0].LikesRecent != 2 {
		t.Errorf("m3 likes = %d, want all-time 2", cands[0].LikesRecent)
	}
}

func TestGenreLookups(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	names, err := db.GenreNamesForMovies(ctx, []string{"m2", "m5"})
	if err != nil {
		t.Fatalf("GenreNamesForMovies() error = %v", err)
	}
	if want := map[string][]string{"m2": {"Action", "Comedy"}}; !reflect.DeepEqual(names, want) {
		t.Errorf("GenreNamesForMovies() = %v, want %v", names, want)
	}

	ids, err := db.GenreIDsForMovies(ctx, []string{"m2", "m4"})
	if err != nil {
		t.Fatalf("GenreIDsForMovies() error = %v", err)
	}
	if want := map[string][]int{"m2": {28, 35}, "m4": {18}}; !reflect.DeepEqual(ids, want) {
		t.Errorf("GenreIDsForMovies() = %v, want %v", ids, want)
	}

	empty, err := db.GenreNamesForMovies(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GenreNamesForMovies(nil) = %v, %v", empty, err)
	}

	// Relinking replaces the old genres and drops duplicates.
	if err := db.SetMovieGenres(ctx, map[string][]int{"m2": {35, 35, 18}}); err != nil {
		t.Fatalf("SetMovieGenres() error = %v", err)
	}
	names, _ = db.GenreNamesForMovies(ctx, []string{"m2"})
	if want := []string{"Comedy", "Drama"}; !reflect.DeepEqual(names["m2"], want) {
		t.Errorf("after relink = %v, want %v", names["m2"], want)
	}
}

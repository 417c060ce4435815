// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/josuejero/ReelSwipe/internal/config"
	"github.com/josuejero/ReelSwipe/internal/database"
	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/josuejero/ReelSwipe/internal/recommend/evaluation"
	"github.com/josuejero/ReelSwipe/internal/recommend/storage"
	"github.com/josuejero/ReelSwipe/internal/recommend/training"
	"github.com/josuejero/ReelSwipe/internal/validation"
	"github.com/rs/zerolog"
)

const defaultArtifactsDir = "artifacts/ml"

// Impression evaluation outputs, written into the snapshot directory.
const (
	fileImpressionEval   = "impression_eval.json"
	fileImpressionReport = "impression_eval.md"
)

// app carries what every subcommand shares.
type app struct {
	out    io.Writer
	logger zerolog.Logger
	now    func() time.Time
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// common are the flags shared by every subcommand.
type common struct {
	fs        *flag.FlagSet
	artifacts string
	snapshot  string
}

func newFlags(name string, a *app) *common {
	c := &common{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.SetOutput(a.out)
	c.fs.StringVar(&c.artifacts, "artifacts", defaultArtifactsDir, "artifact base directory")
	c.fs.StringVar(&c.snapshot, "snapshot", "", "snapshot id")
	return c
}

func (c *common) parse(args []string, needSnapshot bool) (*storage.Store, error) {
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if needSnapshot && c.snapshot == "" {
		return nil, errors.New("-snapshot is required")
	}
	return storage.NewStore(c.artifacts)
}

// openDB opens the store from configuration, with path overriding
// database.path when set.
func openDB(path string) (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dbCfg := cfg.Database
	if path != "" {
		dbCfg.Path = path
	}
	return database.New(&dbCfg)
}

func runSnapshot(ctx context.Context, a *app, args []string) error {
	c := newFlags("snapshot", a)
	dbPath := c.fs.String("db", "", "DuckDB path (default from configuration)")
	withImpressions := c.fs.Bool("impressions", false, "include recommendation_impressions")
	store, err := c.parse(args, false)
	if err != nil {
		return err
	}
	if c.snapshot == "" {
		c.snapshot = "snap_" + a.clock().UTC().Format("20060102T150405Z")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	snap, err := db.ExportSnapshot(ctx, c.snapshot, *withImpressions)
	if err != nil {
		return err
	}
	m, err := store.WriteSnapshot(ctx, snap)
	if err != nil {
		return err
	}
	a.logger.Info().Str("snapshot_id", m.SnapshotID).Interface("counts", m.Counts).Msg("snapshot written")
	_, err = fmt.Fprintln(a.out, store.SnapshotDir(m.SnapshotID))
	return err
}

func runDQ(_ context.Context, a *app, args []string) error {
	c := newFlags("dq", a)
	store, err := c.parse(args, true)
	if err != nil {
		return err
	}
	_, err = validation.CheckSnapshot(store, c.snapshot, a.out)
	return err
}

// readCheckedSnapshot runs the data-quality gate and reads the snapshot only
// when it passes.
func readCheckedSnapshot(ctx context.Context, a *app, store *storage.Store, snapshotID string) (*storage.Snapshot, error) {
	if _, err := validation.CheckSnapshot(store, snapshotID, a.out); err != nil {
		return nil, err
	}
	return store.ReadSnapshot(ctx, snapshotID)
}

func runTrain(ctx context.Context, a *app, args []string) error {
	c := newFlags("train", a)
	version := c.fs.String("model-version", "", "model version to write (required)")
	cfg := recommend.DefaultConfig().Training
	c.fs.IntVar(&cfg.K, "k", cfg.K, "neighbors kept per movie")
	c.fs.IntVar(&cfg.MinCo, "min-co", cfg.MinCo, "minimum co-occurrence")
	c.fs.Float64Var(&cfg.Shrink, "shrink", cfg.Shrink, "shrinkage constant")
	c.fs.IntVar(&cfg.SessionLikeCap, "session-like-cap", cfg.SessionLikeCap, "likes per session used for co-occurrence")
	store, err := c.parse(args, true)
	if err != nil {
		return err
	}
	if *version == "" {
		return errors.New("-model-version is required")
	}

	snap, err := readCheckedSnapshot(ctx, a, store, c.snapshot)
	if err != nil {
		return err
	}
	model, err := training.NewTrainer(cfg, a.logger).Train(ctx, snap.Swipes, *version, c.snapshot)
	if err != nil {
		return err
	}
	if err := store.WriteModel(ctx, model.Info, model.Neighbors); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "model %s: %d neighbor rows -> %s\n",
		*version, model.Info.Stats.NeighborRows, store.ModelDir(*version))
	return err
}

func runEval(ctx context.Context, a *app, args []string) error {
	c := newFlags("eval", a)
	version := c.fs.String("model-version", "", "model version to evaluate (required)")
	cfg := recommend.DefaultConfig().Evaluation
	c.fs.IntVar(&cfg.K, "k", cfg.K, "cutoff K")
	c.fs.IntVar(&cfg.MinLikes, "min-likes", cfg.MinLikes, "minimum distinct likes per evaluated session")
	store, err := c.parse(args, true)
	if err != nil {
		return err
	}
	if *version == "" {
		return errors.New("-model-version is required")
	}

	snap, err := readCheckedSnapshot(ctx, a, store, c.snapshot)
	if err != nil {
		return err
	}
	_, neighbors, err := store.ReadModel(ctx, *version)
	if err != nil {
		return err
	}
	report, err := evaluation.NewEvaluator(cfg, a.logger).Evaluate(ctx, snap.Swipes, neighbors, *version, c.snapshot)
	if err != nil {
		return err
	}
	markdown := evaluation.RenderOfflineReport(report)
	if err := store.WriteEval(ctx, report, markdown); err != nil {
		return err
	}
	_, err = io.WriteString(a.out, markdown)
	return err
}

func runLoad(ctx context.Context, a *app, args []string) error {
	c := newFlags("load", a)
	dbPath := c.fs.String("db", "", "DuckDB path (default from configuration)")
	version := c.fs.String("model-version", "", "model version to load (required)")
	setCurrent := c.fs.Bool("set-current", false, "promote the version after loading")
	notes := c.fs.String("notes", "", "free-form notes stored with the version")
	phase := c.fs.String("phase", "", "rollout phase reported by /health (unchanged when empty)")
	store, err := c.parse(args, false)
	if err != nil {
		return err
	}
	if *version == "" {
		return errors.New("-model-version is required")
	}

	info, neighbors, err := store.ReadModel(ctx, *version)
	if err != nil {
		return err
	}
	req := &database.LoadModelRequest{
		Info:       *info,
		Neighbors:  neighbors,
		Notes:      *notes,
		SetCurrent: *setCurrent,
	}
	report, err := store.ReadEval(ctx, *version)
	switch {
	case err == nil:
		req.Metrics = &report.Eval
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}

	db, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.LoadModel(ctx, req)
	if err != nil {
		return err
	}
	if *phase != "" {
		if err := db.SetPhase(ctx, *phase); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(a.out, "loaded %s: %d neighbor rows (current=%t)\n", *version, rows, *setCurrent)
	return err
}

// runSeed loads a snapshot's catalog tables into the store. Swipes and
// impressions in the snapshot are ignored.
func runSeed(ctx context.Context, a *app, args []string) error {
	c := newFlags("seed", a)
	dbPath := c.fs.String("db", "", "DuckDB path (default from configuration)")
	store, err := c.parse(args, true)
	if err != nil {
		return err
	}
	snap, err := store.ReadSnapshot(ctx, c.snapshot)
	if err != nil {
		return err
	}

	links := make([]recommend.MovieGenre, len(snap.MovieGenres))
	copy(links, snap.MovieGenres)
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].MovieID != links[j].MovieID {
			return links[i].MovieID < links[j].MovieID
		}
		return links[i].Position < links[j].Position
	})
	genreIDs := make(map[string][]int)
	for _, l := range links {
		genreIDs[l.MovieID] = append(genreIDs[l.MovieID], l.GenreID)
	}

	db, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.UpsertGenres(ctx, snap.Genres); err != nil {
		return err
	}
	if err := db.UpsertMovies(ctx, snap.Movies); err != nil {
		return err
	}
	if err := db.SetMovieGenres(ctx, genreIDs); err != nil {
		return err
	}
	a.logger.Info().Str("snapshot_id", c.snapshot).Int("movies", len(snap.Movies)).Msg("catalog seeded")
	_, err = fmt.Fprintf(a.out, "seeded %d movies, %d genres, %d genre links\n",
		len(snap.Movies), len(snap.Genres), len(links))
	return err
}

func runEvalImpressions(ctx context.Context, a *app, args []string) error {
	c := newFlags("eval-impressions", a)
	k := c.fs.Int("k", recommend.DefaultConfig().Evaluation.K, "cutoff K")
	store, err := c.parse(args, true)
	if err != nil {
		return err
	}
	snap, err := store.ReadSnapshot(ctx, c.snapshot)
	if err != nil {
		return err
	}
	if snap.Impressions == nil {
		return fmt.Errorf("snapshot %s has no impressions; re-run snapshot with -impressions", c.snapshot)
	}

	report := evaluation.EvaluateImpressions(evaluation.LabelImpressions(snap.Impressions, snap.Swipes), *k)
	markdown := evaluation.RenderImpressionReport(report)

	dir := store.SnapshotDir(c.snapshot)
	if err := storage.WriteJSONFile(filepath.Join(dir, fileImpressionEval), report); err != nil {
		return err
	}
	if err := storage.WriteFile(filepath.Join(dir, fileImpressionReport), []byte(markdown)); err != nil {
		return err
	}
	_, err = io.WriteString(a.out, markdown)
	return err
}

func runSummary(ctx context.Context, a *app, args []string) error {
	c := newFlags("summary", a)
	store, err := c.parse(args, true)
	if err != nil {
		return err
	}
	snap, err := store.ReadSnapshot(ctx, c.snapshot)
	if err != nil {
		return err
	}
	return evaluation.Summarize(snap.Swipes, len(snap.Impressions)).Write(a.out)
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// Snapshot file names.
const (
	FileSwipeEvents = "swipe_events.json"
	FileMovies      = "movies.json"
	FileMovieGenres = "movie_genres.json"
	FileGenres      = "tmdb_genres.json"
	FileImpressions = "recommendation_impressions.json"
	FileManifest    = "manifest.json"
)

// Model file names.
const (
	FileModel     = "model.json"
	FileNeighbors = "neighbors.json"
	FileMetrics   = "metrics.json"
	FileReport    = "report.md"
)

const (
	snapshotsDir = "snapshots"
	modelsDir    = "models"

	// manifestTimeFormat matches ISO-8601 with millisecond precision.
	manifestTimeFormat = "2006-01-02T15:04:05.000Z07:00"
)

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Manifest describes the contents of a snapshot directory.
type Manifest struct {
	SnapshotID string         `json:"snapshot_id"`
	CreatedAt  string         `json:"created_at"`
	Counts     map[string]int `json:"counts"`
	Files      []string       `json:"files"`
}

// Snapshot is a frozen export of the tables offline tooling reads.
// Impressions is nil when the snapshot was taken without them.
type Snapshot struct {
	Manifest    Manifest
	Swipes      []recommend.SwipeEvent
	Movies      []recommend.Movie
	MovieGenres []recommend.MovieGenre
	Genres      []recommend.Genre
	Impressions []recommend.Impression
}

// Store reads and writes artifacts below a base directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates a store rooted at baseDir, creating the directory if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// SnapshotDir returns the directory of a snapshot.
func (s *Store) SnapshotDir(snapshotID string) string {
	return filepath.Join(s.baseDir, snapshotsDir, snapshotID)
}

// ModelDir returns the directory of a model version.
func (s *Store) ModelDir(modelVersion string) string {
	return filepath.Join(s.baseDir, modelsDir, modelVersion)
}

// WriteSnapshot writes every table of snap and then its manifest. The
// manifest's counts and file list are derived from the tables; CreatedAt is
// set to now when empty.
func (s *Store) WriteSnapshot(ctx context.Context, snap *Snapshot) (*Manifest, error) {
	if snap.Manifest.SnapshotID == "" {
		return nil, errors.New("snapshot id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.SnapshotDir(snap.Manifest.SnapshotID)
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	type table struct {
		file  string
		key   string
		rows  any
		count int
	}
	tables := []table{
		{FileSwipeEvents, "swipe_events", nonNil(snap.Swipes), len(snap.Swipes)},
		{FileMovies, "movies", nonNil(snap.Movies), len(snap.Movies)},
		{FileMovieGenres, "movie_genres", nonNil(snap.MovieGenres), len(snap.MovieGenres)},
		{FileGenres, "tmdb_genres", nonNil(snap.Genres), len(snap.Genres)},
	}
	if snap.Impressions != nil {
		tables = append(tables, table{FileImpressions, "recommendation_impressions", snap.Impressions, len(snap.Impressions)})
	}

	m := snap.Manifest
	if m.CreatedAt == "" {
		m.CreatedAt = time.Now().UTC().Format(manifestTimeFormat)
	}
	m.Counts = make(map[string]int, len(tables))
	m.Files = make([]string, 0, len(tables)+1)

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeJSON(filepath.Join(dir, t.file), t.rows); err != nil {
			return nil, err
		}
		m.Counts[t.key] = t.count
		m.Files = append(m.Files, t.file)
	}
	m.Files = append(m.Files, FileManifest)

	if err := writeJSON(filepath.Join(dir, FileManifest), m); err != nil {
		return nil, err
	}
	snap.Manifest = m
	return &m, nil
}

// ReadSnapshot loads a complete snapshot. A missing impressions file leaves
// Snapshot.Impressions nil.
func (s *Store) ReadSnapshot(ctx context.Context, snapshotID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.SnapshotDir(snapshotID)
	snap := &Snapshot{}
	if err := readJSON(filepath.Join(dir, FileManifest), &snap.Manifest); err != nil {
		return nil, err
	}

	var err error
	if snap.Swipes, err = readSwipes(filepath.Join(dir, FileSwipeEvents)); err != nil {
		return nil, err
	}
	for _, r := range []struct {
		file   string
		target any
	}{
		{FileMovies, &snap.Movies},
		{FileMovieGenres, &snap.MovieGenres},
		{FileGenres, &snap.Genres},
	} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := readJSON(filepath.Join(dir, r.file), r.target); err != nil {
			return nil, err
		}
	}
	snap.Impressions, err = readImpressions(filepath.Join(dir, FileImpressions))
	if errors.Is(err, ErrNotFound) {
		return snap, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ReadRaw returns the undecoded contents of one snapshot file. The
// data-quality gate inspects these before any typed decoding.
func (s *Store) ReadRaw(snapshotID, file string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.SnapshotDir(snapshotID), file)
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the store's base directory
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return data, nil
}

// WriteModel writes model.json and neighbors.json for info.ModelVersion.
//
//nolint:gocritic // info passed by value is acceptable for this write operation
func (s *Store) WriteModel(ctx context.Context, info recommend.NeighborModel, neighbors []recommend.Neighbor) error {
	if info.ModelVersion == "" {
		return errors.New("model version is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.ModelDir(info.ModelVersion)
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return fmt.Errorf("create model directory: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, FileModel), info); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, FileNeighbors), nonNil(neighbors))
}

// ReadModel loads a model's metadata and neighbor rows.
func (s *Store) ReadModel(ctx context.Context, modelVersion string) (*recommend.NeighborModel, []recommend.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.ModelDir(modelVersion)
	var info recommend.NeighborModel
	if err := readJSON(filepath.Join(dir, FileModel), &info); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var neighbors []recommend.Neighbor
	if err := readJSON(filepath.Join(dir, FileNeighbors), &neighbors); err != nil {
		return nil, nil, err
	}
	return &info, neighbors, nil
}

// WriteEval writes metrics.json and report.md next to the evaluated model.
func (s *Store) WriteEval(ctx context.Context, report *recommend.EvalReport, markdown string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.ModelDir(report.ModelVersion)
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return fmt.Errorf("create model directory: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, FileMetrics), report); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, FileReport), []byte(markdown))
}

// ReadEval loads a model's evaluation report. It returns ErrNotFound when the
// model has not been evaluated.
func (s *Store) ReadEval(_ context.Context, modelVersion string) (*recommend.EvalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var report recommend.EvalReport
	if err := readJSON(filepath.Join(s.ModelDir(modelVersion), FileMetrics), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListModels returns the versions that have a model.json, sorted by name.
func (s *Store) ListModels(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.baseDir, modelsDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read models directory: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.baseDir, modelsDir, entry.Name(), FileModel)); err == nil {
			versions = append(versions, entry.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// WriteFile writes a standalone artifact such as an impression report.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return fmt.Errorf("create directory: %w", err)
	}
	return writeFileAtomic(path, data)
}

// WriteJSONFile writes v as indented JSON to path.
func WriteJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return fmt.Errorf("create directory: %w", err)
	}
	return writeJSON(path, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, data)
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the store's base directory
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// nonNil keeps empty tables encoded as [] rather than null.
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/josuejero/ReelSwipe/internal/metrics"
	"github.com/josuejero/ReelSwipe/internal/recommend"
)

// defaultModelListLimit is the number of versions ListModelVersions returns
// when no limit is given.
const defaultModelListLimit = 25

// LoadModelRequest is one model version to publish.
type LoadModelRequest struct {
	Info      recommend.NeighborModel
	Neighbors []recommend.Neighbor

	// Metrics are the offline scores stored with the version, if evaluated.
	Metrics *recommend.EvalMetrics
	Notes   string

	// SetCurrent promotes the version in the same transaction.
	SetCurrent bool
}

// LoadModel upserts the version row, replaces its neighbor rows and
// optionally promotes it, all in one transaction. Concurrent loads of the
// same version are serialized.
func (db *DB) LoadModel(ctx context.Context, req *LoadModelRequest) (rows int, err error) {
	version := req.Info.ModelVersion
	if version == "" {
		return 0, errors.New("model_version is required")
	}
	defer db.observe("load_model", time.Now(), &err)

	lock := db.modelLock(version)
	lock.Lock()
	defer lock.Unlock()

	err = db.withTxRetry(ctx, "load_model", func(tx *sql.Tx) error {
		if err := upsertModelVersion(ctx, tx, &req.Info, req.Metrics, req.Notes); err != nil {
			return err
		}
		n, err := replaceNeighbors(ctx, tx, version, req.Neighbors)
		if err != nil {
			return err
		}
		rows = n
		if req.SetCurrent {
			return setMeta(ctx, tx, metaCurrentModelVersion, version)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load model %s: %w", version, err)
	}

	metrics.RecordNeighborRows(version, rows)
	if req.Metrics != nil {
		metrics.SetModelEvalScores(version, req.Metrics.NDCGAtK, req.Metrics.MAPAtK, req.Metrics.RecallAtK)
	}
	if req.SetCurrent {
		metrics.RecordModelPromotion()
	}
	return rows, nil
}

// ListModelVersions returns the most recently created versions first.
func (db *DB) ListModelVersions(ctx context.Context, limit int) (out []recommend.ModelVersionInfo, err error) {
	if limit <= 0 {
		limit = defaultModelListLimit
	}
	defer db.observe("list_model_versions", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT model_version, created_at_ms, snapshot_id, algo, metrics_json
		FROM model_versions
		ORDER BY created_at_ms DESC, model_version
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query model versions: %w", err)
	}
	defer rows.Close()

	out = []recommend.ModelVersionInfo{}
	for rows.Next() {
		var info recommend.ModelVersionInfo
		var snapshot, metricsJSON sql.NullString
		if err := rows.Scan(&info.ModelVersion, &info.CreatedAtMs, &snapshot, &info.Algo, &metricsJSON); err != nil {
			return nil, fmt.Errorf("scan model version: %w", err)
		}
		info.SnapshotID = snapshot.String
		if metricsJSON.Valid && metricsJSON.String != "" {
			var m recommend.EvalMetrics
			if err := json.Unmarshal([]byte(metricsJSON.String), &m); err == nil {
				info.Metrics = &m
			}
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// ModelVersionExists reports whether version is registered.
func (db *DB) ModelVersionExists(ctx context.Context, version string) (exists bool, err error) {
	defer db.observe("model_version_exists", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int64
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM model_versions WHERE model_version = $1`, version).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check model version: %w", err)
	}
	return n > 0, nil
}

// SetCurrentModelVersion promotes a registered version. It returns
// recommend.ErrUnknownModelVersion for versions not in the registry.
func (db *DB) SetCurrentModelVersion(ctx context.Context, version string) (err error) {
	defer db.observe("set_current_model_version", time.Now(), &err)

	exists, err := db.ModelVersionExists(ctx, version)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", recommend.ErrUnknownModelVersion, version)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if err := setMeta(ctx, db.conn, metaCurrentModelVersion, version); err != nil {
		return err
	}
	metrics.RecordModelPromotion()
	return nil
}

// modelLock returns the in-process mutex of a model version.
func (db *DB) modelLock(version string) *sync.Mutex {
	v, _ := db.modelLocks.LoadOrStore(version, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func upsertModelVersion(ctx context.Context, ex execer, info *recommend.NeighborModel, eval *recommend.EvalMetrics, notes string) error {
	if info.ModelVersion == "" {
		return errors.New("model_version is required")
	}
	algo := info.Algo
	if algo == "" {
		algo = recommend.CFAlgo
	}
	createdAt := info.CreatedAtMs
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	params, err := json.Marshal(info.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	var metricsJSON sql.NullString
	if eval != nil {
		b, err := json.Marshal(eval)
		if err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
		metricsJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO model_versions (model_version, created_at_ms, snapshot_id, algo, params_json, metrics_json, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (model_version) DO UPDATE SET
			created_at_ms = excluded.created_at_ms,
			snapshot_id = excluded.snapshot_id,
			algo = excluded.algo,
			params_json = excluded.params_json,
			metrics_json = excluded.metrics_json,
			notes = excluded.notes`,
		info.ModelVersion, createdAt, nullString(info.SnapshotID), algo, string(params), metricsJSON, nullString(notes))
	if err != nil {
		return fmt.Errorf("upsert model version %s: %w", info.ModelVersion, err)
	}
	return nil
}

// replaceNeighbors deletes the version's rows and inserts the new list.
// Rows with a non-finite score are skipped.
func replaceNeighbors(ctx context.Context, tx *sql.Tx, version string, neighbors []recommend.Neighbor) (int, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cf_item_neighbors WHERE model_version = $1`, version); err != nil {
		return 0, fmt.Errorf("delete neighbors of %s: %w", version, err)
	}
	if len(neighbors) == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cf_item_neighbors (model_version, movie_id, neighbor_movie_id, score)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return 0, fmt.Errorf("prepare neighbor insert: %w", err)
	}
	defer closeWithLog(stmt, "statement")

	written := 0
	for _, n := range neighbors {
		if math.IsNaN(n.Score) || math.IsInf(n.Score, 0) {
			continue
		}
		if _, err := stmt.ExecContext(ctx, version, n.MovieID, n.NeighborMovieID, n.Score); err != nil {
			return 0, fmt.Errorf("insert neighbor %s->%s: %w", n.MovieID, n.NeighborMovieID, err)
		}
		written++
	}
	return written, nil
}

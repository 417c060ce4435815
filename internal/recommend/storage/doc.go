// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package storage persists the offline artifacts of the recommendation
// pipeline: data snapshots, trained neighbor models and evaluation reports.
//
// All artifacts are pretty-printed JSON files under a single base directory:
//
//	{base}/snapshots/{snapshot_id}/
//	    swipe_events.json
//	    movies.json
//	    movie_genres.json
//	    tmdb_genres.json
//	    recommendation_impressions.json   (optional)
//	    manifest.json
//
//	{base}/models/{model_version}/
//	    model.json
//	    neighbors.json
//	    metrics.json                      (after evaluation)
//	    report.md                         (after evaluation)
//
// The manifest is written last, so a snapshot directory without a manifest
// is incomplete. Every file is written to a temporary name and renamed into
// place.
//
// # Usage Example
//
//	store, err := storage.NewStore("artifacts")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	snap, err := store.ReadSnapshot(ctx, "2026-10-01")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	model, err := trainer.Train(ctx, snap.Swipes, "cf_v3", snap.Manifest.SnapshotID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.WriteModel(ctx, model.Info, model.Neighbors); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Store methods are safe for concurrent use within one process. Separate
// processes writing the same snapshot or model version are not coordinated.
package storage

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package recommend is the recommendation core of ReelSwipe: it turns an
// anonymous session's like/skip history into an ordered deck of movies.
//
// # Architecture
//
// A deck is built in three stages, each behind an interface so the store and
// the algorithms can be swapped independently:
//
//   - Retrieval (package retrieval): popular-recent, genre-match, explore and
//     CF-neighbor candidate buckets, merged into one keyed candidate set.
//   - Ranking (package reranking): blended popularity, personalization and CF
//     score with reason codes, a per-top-genre diversity cap and backfill.
//   - Recording (Recorder): every shown movie is written as an impression,
//     tagged with the model version that produced it.
//
// Offline, package training builds item-item CF neighbor models from snapshot
// like sequences and package evaluation scores them (NDCG/MAP/Recall@K)
// before an operator promotes a version to current.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, logger, recommend.Dependencies{
//	    Retriever: retrieval.New(store, retrieval.Options{...}, logger),
//	    Data:      store,
//	    Recorder:  recommend.NewRecorder(store, logger),
//	    TwoStage:  reranking.NewTwoStage(cfg.Rerank),
//	    Baseline:  reranking.NewBaseline(cfg.Rerank),
//	})
//	deck, err := engine.BuildDeck(ctx, recommend.DeckRequest{SessionID: sid, Limit: 20})
//	if errors.Is(err, recommend.ErrNoCandidates) {
//	    // nothing left to show this session
//	}
//
// # Thread Safety
//
// Engine holds no per-request state. The current model version is read from
// the store on every build so a promotion takes effect on the next request.
//
// This package has no dependencies on other internal packages; the store
// satisfies DataProvider and ImpressionStore without an import cycle.
package recommend

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package retrieval generates deck candidates for a session.
//
// Four strategies run concurrently against the store:
//
//   - popular_recent: smoothed like-rate over the recent window
//   - genre_match: movies in the session's top preferred genres
//   - explore: pseudo-random sample of the unseen pool
//   - cf_neighbors: summed item-item neighbor scores of recent likes
//
// Every strategy excludes the session's seen set (impressions and swipes).
// A failing strategy is logged and skipped; each has its own circuit breaker
// so a broken query stops costing latency. Only when every strategy fails
// does Retrieve return an error.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/josuejero/ReelSwipe/internal/metrics"
	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Strategy names, used as metric labels and breaker names.
const (
	StrategyPopular    = "popular_recent"
	StrategyGenreMatch = "genre_match"
	StrategyExplore    = "explore"
	StrategyCF         = "cf_neighbors"
)

// Store is the subset of the candidate store used by retrieval.
type Store interface {
	PopularRecent(ctx context.Context, sessionID string, cutoff time.Time, limit int) ([]recommend.Candidate, error)
	TopGenres(ctx context.Context, sessionID string, n int) ([]int, error)
	GenreMatch(ctx context.Context, sessionID string, genreIDs []int, cutoff time.Time, limit int) ([]recommend.Candidate, error)
	Explore(ctx context.Context, sessionID string, cutoff time.Time, seed int64, limit int) ([]recommend.Candidate, error)
	RecentLikedMovies(ctx context.Context, sessionID string, limit int) ([]string, error)
	CFNeighbors(ctx context.Context, sessionID, modelVersion string, likedMovieIDs []string, cutoff time.Time, limit int) ([]recommend.Candidate, error)
}

// Options configures a Retriever.
type Options struct {
	PopularCap      int
	GenreMatchCap   int
	ExploreCap      int
	StrategyTimeout time.Duration
	Breaker         BreakerConfig

	// Rand seeds the explore sampler. If nil, a clock-seeded source is used.
	Rand *rand.Rand
}

// OptionsFromConfig derives retriever options from the core config.
func OptionsFromConfig(cfg *recommend.Config) Options {
	opts := Options{
		PopularCap:      cfg.Retrieval.PopularCap,
		GenreMatchCap:   cfg.Retrieval.GenreMatchCap,
		ExploreCap:      cfg.Retrieval.ExploreCap,
		StrategyTimeout: cfg.Retrieval.StrategyTimeout,
		Breaker:         DefaultBreakerConfig(),
	}
	if cfg.Seed != 0 {
		opts.Rand = rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // sampling, not security
	}
	return opts
}

// Retriever implements recommend.CandidateRetriever.
type Retriever struct {
	store    Store
	opts     Options
	logger   zerolog.Logger
	breakers map[string]*breaker

	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ recommend.CandidateRetriever = (*Retriever)(nil)

// New creates a Retriever.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(store Store, opts Options, logger zerolog.Logger) *Retriever {
	logger = logger.With().Str("component", "retrieval").Logger()
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // sampling, not security
	}
	breakers := make(map[string]*breaker, 4)
	for _, name := range []string{StrategyPopular, StrategyGenreMatch, StrategyExplore, StrategyCF} {
		breakers[name] = newBreaker(name, opts.Breaker, logger)
	}
	return &Retriever{
		store:    store,
		opts:     opts,
		logger:   logger,
		breakers: breakers,
		rng:      rng,
	}
}

func (r *Retriever) nextSeed() int64 {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Int63()
}

type strategy struct {
	name string
	run  func(ctx context.Context) ([]recommend.Candidate, error)
}

// Retrieve runs all strategies and merges their results. CF candidates come
// first; the base buckets are merged and trimmed to req.Limit before that.
func (r *Retriever) Retrieve(ctx context.Context, req recommend.RetrievalRequest) ([]recommend.Candidate, error) {
	cutoff := req.Cutoff()
	seed := r.nextSeed()

	strategies := []strategy{
		{StrategyPopular, func(ctx context.Context) ([]recommend.Candidate, error) {
			return r.store.PopularRecent(ctx, req.SessionID, cutoff, r.opts.PopularCap)
		}},
		{StrategyGenreMatch, func(ctx context.Context) ([]recommend.Candidate, error) {
			genres, err := r.store.TopGenres(ctx, req.SessionID, req.TopGenres)
			if err != nil {
				return nil, fmt.Errorf("top genres: %w", err)
			}
			if len(genres) == 0 {
				return nil, nil
			}
			return r.store.GenreMatch(ctx, req.SessionID, genres, cutoff, r.opts.GenreMatchCap)
		}},
		{StrategyExplore, func(ctx context.Context) ([]recommend.Candidate, error) {
			return r.store.Explore(ctx, req.SessionID, cutoff, seed, r.opts.ExploreCap)
		}},
		{StrategyCF, func(ctx context.Context) ([]recommend.Candidate, error) {
			if req.CFMaxLikes <= 0 || req.CFLimit <= 0 {
				return nil, nil
			}
			liked, err := r.store.RecentLikedMovies(ctx, req.SessionID, req.CFMaxLikes)
			if err != nil {
				return nil, fmt.Errorf("recent likes: %w", err)
			}
			if len(liked) == 0 {
				return nil, nil
			}
			return r.store.CFNeighbors(ctx, req.SessionID, req.ModelVersion, liked, cutoff, req.CFLimit)
		}},
	}

	results := make([][]recommend.Candidate, len(strategies))
	errs := make([]error, len(strategies))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range strategies {
		g.Go(func() error {
			results[i], errs[i] = r.runStrategy(gctx, s)
			// Only caller cancellation aborts the group.
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		r.logger.Warn().
			Err(err).
			Str("strategy", strategies[i].name).
			Str("session_id", req.SessionID).
			Msg("retrieval strategy failed, continuing without it")
	}
	if failed == len(strategies) {
		return nil, fmt.Errorf("%w: %w", recommend.ErrAllStrategiesFailed, errors.Join(errs...))
	}

	base := Merge(results[0], results[1], results[2])
	if req.Limit > 0 && len(base) > req.Limit {
		base = base[:req.Limit]
	}
	return Merge(results[3], base), nil
}

func (r *Retriever) runStrategy(ctx context.Context, s strategy) ([]recommend.Candidate, error) {
	if r.opts.StrategyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.StrategyTimeout)
		defer cancel()
	}
	out, err := r.breakers[s.name].Execute(func() ([]recommend.Candidate, error) {
		return s.run(ctx)
	})
	metrics.RecordRetrieval(s.name, len(out), err, isCircuitOpen(err))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	return out, nil
}

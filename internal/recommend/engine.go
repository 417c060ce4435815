// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RetrievalRequest is the input of one candidate retrieval.
type RetrievalRequest struct {
	SessionID    string
	ModelVersion string
	Now          time.Time
	Window       time.Duration

	// Limit caps the merged base buckets; CF candidates are added on top.
	Limit      int
	TopGenres  int
	CFLimit    int
	CFMaxLikes int
}

// Cutoff is the start of the recent window.
func (r RetrievalRequest) Cutoff() time.Time {
	return r.Now.Add(-r.Window)
}

// CandidateRetriever produces the merged candidate set for a session.
// Implementations exclude every movie the session has seen.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, req RetrievalRequest) ([]Candidate, error)
}

// RankInput is everything a Ranker needs for one deck.
type RankInput struct {
	Candidates []Candidate
	GenreNames map[string][]string
	GenreIDs   map[string][]int
	Prefs      GenrePrefs
	Limit      int
}

// Ranker orders candidates into a deck of at most Limit movies.
// Rank must not mutate its input.
type Ranker interface {
	Name() string
	Rank(in RankInput) []RankedMovie
}

// DataProvider is the read side of the store used while building a deck.
// This is typically implemented by the database layer.
type DataProvider interface {
	// CurrentModelVersion returns the promoted model version, or fallback
	// when none has been promoted.
	CurrentModelVersion(ctx context.Context, fallback string) (string, error)

	// GenreNamesForMovies returns genre names per movie in catalog order.
	GenreNamesForMovies(ctx context.Context, movieIDs []string) (map[string][]string, error)

	// GenreIDsForMovies returns genre ids per movie.
	GenreIDsForMovies(ctx context.Context, movieIDs []string) (map[string][]int, error)

	// GenrePrefs returns the session's signed genre preferences.
	GenrePrefs(ctx context.Context, sessionID string) (GenrePrefs, error)

	// BaselineCandidates returns all-time like/skip stats for movies the
	// session has not swiped, most liked first.
	BaselineCandidates(ctx context.Context, sessionID string, limit int) ([]Candidate, error)
}

// DeckRequest is a client request for a deck.
type DeckRequest struct {
	SessionID string
	Limit     int
	RequestID string
}

// Dependencies wires an Engine to its collaborators.
type Dependencies struct {
	Retriever CandidateRetriever
	Data      DataProvider
	Recorder  *Recorder
	TwoStage  Ranker
	Baseline  Ranker
}

// Engine builds decks. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	retriever CandidateRetriever
	data      DataProvider
	recorder  *Recorder
	twoStage  Ranker
	baseline  Ranker

	now       func() time.Time
	newDeckID func() string
}

// NewEngine creates a deck-building engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger, deps Dependencies) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Data == nil || deps.Recorder == nil {
		return nil, errors.New("data provider and recorder are required")
	}
	switch cfg.Mode {
	case ModeTwoStage:
		if deps.Retriever == nil || deps.TwoStage == nil {
			return nil, errors.New("two_stage mode requires a retriever and a two-stage ranker")
		}
	case ModeBaseline:
		if deps.Baseline == nil {
			return nil, errors.New("baseline mode requires a baseline ranker")
		}
	}

	return &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		retriever: deps.Retriever,
		data:      deps.Data,
		recorder:  deps.Recorder,
		twoStage:  deps.TwoStage,
		baseline:  deps.Baseline,
		now:       time.Now,
		newDeckID: uuid.NewString,
	}, nil
}

// Mode returns the active ranker mode.
func (e *Engine) Mode() string {
	return e.config.Mode
}

// BuildDeck retrieves, ranks and records a deck for the session.
// When the session has nothing left to see it returns a *NoCandidatesError,
// which matches ErrNoCandidates under errors.Is.
func (e *Engine) BuildDeck(ctx context.Context, req DeckRequest) (*Deck, error) {
	if req.SessionID == "" {
		return nil, errors.New("session_id is required")
	}
	limit := e.config.Deck.ClampLimit(req.Limit)
	now := e.now()

	var (
		modelVersion string
		ranked       []RankedMovie
		err          error
	)
	if e.config.Mode == ModeBaseline {
		modelVersion = BaselineModelVersion
		ranked, err = e.rankBaseline(ctx, req.SessionID, limit)
	} else {
		modelVersion, err = e.data.CurrentModelVersion(ctx, e.config.DefaultModelVersion)
		if err != nil {
			return nil, fmt.Errorf("read current model version: %w", err)
		}
		ranked, err = e.rankTwoStage(ctx, req.SessionID, modelVersion, limit, now)
	}
	if len(ranked) == 0 && err == nil {
		err = ErrNoCandidates
	}
	if errors.Is(err, ErrNoCandidates) {
		return nil, &NoCandidatesError{ModelVersion: modelVersion}
	}
	if err != nil {
		return nil, err
	}

	deck := &Deck{
		DeckID:       e.newDeckID(),
		ModelVersion: modelVersion,
		Movies:       ranked,
	}
	written, err := e.recorder.Record(ctx, DeckRecord{
		DeckID:       deck.DeckID,
		SessionID:    req.SessionID,
		ModelVersion: modelVersion,
		RequestID:    req.RequestID,
		Time:         now,
		Movies:       ranked,
	})
	if err != nil {
		return nil, fmt.Errorf("record impressions: %w", err)
	}

	e.logger.Debug().
		Str("session_id", req.SessionID).
		Str("deck_id", deck.DeckID).
		Str("model_version", modelVersion).
		Int("size", len(ranked)).
		Int("impressions", written).
		Msg("deck built")

	return deck, nil
}

func (e *Engine) rankTwoStage(ctx context.Context, sessionID, modelVersion string, limit int, now time.Time) ([]RankedMovie, error) {
	rc := e.config.Retrieval
	candidates, err := e.retriever.Retrieve(ctx, RetrievalRequest{
		SessionID:    sessionID,
		ModelVersion: modelVersion,
		Now:          now,
		Window:       rc.RecentWindow,
		Limit:        rc.CandidateLimit(limit),
		TopGenres:    rc.TopGenres,
		CFLimit:      rc.CFLimit,
		CFMaxLikes:   rc.CFMaxLikes,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	in, err := e.rankInput(ctx, sessionID, candidates, limit)
	if err != nil {
		return nil, err
	}
	return e.twoStage.Rank(in), nil
}

func (e *Engine) rankBaseline(ctx context.Context, sessionID string, limit int) ([]RankedMovie, error) {
	pool := max(limit, e.config.Rerank.BaselineMinPool)
	candidates, err := e.data.BaselineCandidates(ctx, sessionID, pool)
	if err != nil {
		return nil, fmt.Errorf("baseline candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	in, err := e.rankInput(ctx, sessionID, candidates, limit)
	if err != nil {
		return nil, err
	}
	return e.baseline.Rank(in), nil
}

func (e *Engine) rankInput(ctx context.Context, sessionID string, candidates []Candidate, limit int) (RankInput, error) {
	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].MovieID
	}

	names, err := e.data.GenreNamesForMovies(ctx, ids)
	if err != nil {
		return RankInput{}, fmt.Errorf("genre names: %w", err)
	}
	genreIDs, err := e.data.GenreIDsForMovies(ctx, ids)
	if err != nil {
		return RankInput{}, fmt.Errorf("genre ids: %w", err)
	}
	prefs, err := e.data.GenrePrefs(ctx, sessionID)
	if err != nil {
		return RankInput{}, fmt.Errorf("genre prefs: %w", err)
	}

	return RankInput{
		Candidates: candidates,
		GenreNames: names,
		GenreIDs:   genreIDs,
		Prefs:      prefs,
		Limit:      limit,
	}, nil
}

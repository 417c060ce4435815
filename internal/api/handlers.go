// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package api

import (
	"context"
	"time"

	"github.com/josuejero/ReelSwipe/internal/database"
	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/rs/zerolog"
)

// DeckBuilder builds ranked decks.
type DeckBuilder interface {
	BuildDeck(ctx context.Context, req recommend.DeckRequest) (*recommend.Deck, error)
	Mode() string
}

// Store is the persistence used by the handlers.
type Store interface {
	Ping(ctx context.Context) error
	Phase(ctx context.Context) (string, error)
	RecordSwipe(ctx context.Context, e recommend.SwipeEvent) (bool, error)
	ProfileSummary(ctx context.Context, sessionID string) (*database.SessionProfile, error)
	WindowMetrics(ctx context.Context, window time.Duration) (*database.WindowMetrics, error)
	CurrentModelVersion(ctx context.Context, fallback string) (string, error)
	ListModelVersions(ctx context.Context, limit int) ([]recommend.ModelVersionInfo, error)
	SetCurrentModelVersion(ctx context.Context, version string) error
}

var (
	_ DeckBuilder = (*recommend.Engine)(nil)
	_ Store       = (*database.DB)(nil)
)

// HandlerConfig tunes request handling.
type HandlerConfig struct {
	// DefaultModelVersion is reported when no model has been promoted.
	DefaultModelVersion string

	// KnownModelsLimit bounds the admin model listing.
	KnownModelsLimit int
}

// Handler serves the API endpoints.
type Handler struct {
	store  Store
	decks  DeckBuilder
	config HandlerConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewHandler creates a Handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(store Store, decks DeckBuilder, cfg HandlerConfig, logger zerolog.Logger) *Handler {
	if cfg.DefaultModelVersion == "" {
		cfg.DefaultModelVersion = recommend.DefaultModelVersion
	}
	if cfg.KnownModelsLimit <= 0 {
		cfg.KnownModelsLimit = 25
	}
	return &Handler{
		store:  store,
		decks:  decks,
		config: cfg,
		logger: logger.With().Str("component", "api").Logger(),
		now:    time.Now,
	}
}

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/josuejero/ReelSwipe/internal/api"
	"github.com/josuejero/ReelSwipe/internal/config"
	"github.com/josuejero/ReelSwipe/internal/database"
	"github.com/josuejero/ReelSwipe/internal/logging"
	"github.com/josuejero/ReelSwipe/internal/middleware"
	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/josuejero/ReelSwipe/internal/recommend/reranking"
	"github.com/josuejero/ReelSwipe/internal/recommend/retrieval"
	"github.com/josuejero/ReelSwipe/internal/supervisor"
	"github.com/josuejero/ReelSwipe/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("ranker_mode", cfg.Recommend.RankerMode).
		Msg("Starting ReelSwipe")

	if cfg.Admin.Token == "" {
		logging.Warn().Msg("ADMIN_TOKEN is not set; admin endpoints will reject every request")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	engine, err := newEngine(cfg, db)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize recommendation engine")
		return
	}
	logging.Info().Str("mode", engine.Mode()).Msg("Recommendation engine initialized")

	access := middleware.NewAccessLogger(middleware.AccessLogConfig{
		SampleRate:   cfg.Observability.RequestLogSampleRate,
		MaxPerSecond: cfg.Observability.RequestLogMaxPerSecond,
	}, db, logger)

	handler := api.NewHandler(db, engine, api.HandlerConfig{
		DefaultModelVersion: cfg.Recommend.DefaultModelVersion,
	}, logger)
	router := api.NewRouter(handler, api.NewChiMiddleware(middlewareConfig(cfg)), access)

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}

	tree.AddMaintenanceService(services.NewRetentionService(db, services.RetentionConfig{
		RequestLogDays: cfg.Retention.RequestLogDays,
		SwipeEventDays: cfg.Retention.SwipeEventDays,
		Interval:       cfg.Retention.Interval,
	}, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, access.Wait))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	for err := range tree.ServeBackground(ctx) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newEngine wires the deck pipeline to the store.
func newEngine(cfg *config.Config, db *database.DB) (*recommend.Engine, error) {
	logger := logging.Logger()
	rc := engineConfig(cfg)
	return recommend.NewEngine(rc, logger, recommend.Dependencies{
		Retriever: retrieval.New(db, retrieval.OptionsFromConfig(rc), logger),
		Data:      db,
		Recorder:  recommend.NewRecorder(db, logger),
		TwoStage:  reranking.NewTwoStage(rc.Rerank),
		Baseline:  reranking.NewBaseline(rc.Rerank),
	})
}

// engineConfig overlays the operator-facing settings on the engine defaults.
func engineConfig(cfg *config.Config) *recommend.Config {
	rc := recommend.DefaultConfig()
	r := cfg.Recommend

	if r.RankerMode != "" {
		rc.Mode = r.RankerMode
	}
	if r.DefaultModelVersion != "" {
		rc.DefaultModelVersion = r.DefaultModelVersion
	}
	if r.DefaultDeckLimit > 0 {
		rc.Deck.DefaultLimit = r.DefaultDeckLimit
	}
	if r.MaxDeckLimit > 0 {
		rc.Deck.MaxLimit = r.MaxDeckLimit
	}
	if r.RecentWindow > 0 {
		rc.Retrieval.RecentWindow = r.RecentWindow
	}
	if r.TopGenres > 0 {
		rc.Retrieval.TopGenres = r.TopGenres
	}
	if r.MaxPerTopGenre > 0 {
		rc.Rerank.MaxPerTopGenre = r.MaxPerTopGenre
	}
	if r.CFMaxLikes > 0 {
		rc.Retrieval.CFMaxLikes = r.CFMaxLikes
	}
	overlayFloat(&rc.Rerank.PopWeight, r.PopWeight)
	overlayFloat(&rc.Rerank.PrefWeight, r.PrefWeight)
	overlayFloat(&rc.Rerank.CFWeight, r.CFWeight)
	overlayFloat(&rc.Rerank.TrendingBoost, r.TrendingBoost)
	overlayFloat(&rc.Rerank.CFReasonMin, r.CFReasonMin)
	overlayFloat(&rc.Rerank.PrefReasonMin, r.PrefReasonMin)
	overlayFloat(&rc.Rerank.Epsilon, r.Epsilon)
	if cfg.Database.QueryTimeout > 0 {
		rc.Retrieval.StrategyTimeout = cfg.Database.QueryTimeout
	}
	rc.Seed = r.Seed
	return rc
}

func overlayFloat(dst, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// middlewareConfig maps server and admin settings onto the chi middleware.
func middlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		mw.CORSAllowedOrigins = cfg.Server.CORSOrigins
	}
	mw.RateLimitRequests = cfg.Server.RateLimitReqs
	mw.RateLimitWindow = cfg.Server.RateLimitWindow
	mw.RateLimitDisabled = cfg.Server.RateLimitReqs <= 0
	mw.AdminToken = cfg.Admin.Token
	return mw
}

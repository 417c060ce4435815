// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Package config loads ReelSwipe configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence.
//
// Environment variables keep the names the service has always used
// (RANKER_MODE, ADMIN_TOKEN, CORS_ORIGIN, LOG_SAMPLE_RATE,
// REQUEST_LOG_RETENTION_DAYS, ...). See envMappings in koanf.go for the full
// list.
//
// Thread Safety: Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration for the API server and offline tooling.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Logging       LoggingConfig       `koanf:"logging"`
	Recommend     RecommendConfig     `koanf:"recommend"`
	Retention     RetentionConfig     `koanf:"retention"`
	Admin         AdminConfig         `koanf:"admin"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"` // 0 disables the per-IP limiter
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path         string        `koanf:"path"`
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads"` // 0 = runtime.NumCPU()
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds the deck-serving knobs exposed to operators.
// Everything not listed here keeps the defaults of recommend.DefaultConfig.
type RecommendConfig struct {
	// RankerMode selects the deck pipeline: "two_stage" or "baseline".
	RankerMode string `koanf:"ranker_mode"`

	// DefaultModelVersion is served when no current model pointer is stored.
	DefaultModelVersion string `koanf:"default_model_version"`

	DefaultDeckLimit int           `koanf:"default_deck_limit"`
	MaxDeckLimit     int           `koanf:"max_deck_limit"`
	RecentWindow     time.Duration `koanf:"recent_window"`
	TopGenres        int           `koanf:"top_genres"`
	MaxPerTopGenre   int           `koanf:"max_per_top_genre"`
	CFMaxLikes       int           `koanf:"cf_max_likes"`

	// Blend weights and reason thresholds of the two-stage reranker.
	// Unset (nil) fields keep the engine defaults.
	PopWeight     *float64 `koanf:"pop_weight"`
	PrefWeight    *float64 `koanf:"pref_weight"`
	CFWeight      *float64 `koanf:"cf_weight"`
	TrendingBoost *float64 `koanf:"trending_boost"`
	CFReasonMin   *float64 `koanf:"cf_reason_min"`
	PrefReasonMin *float64 `koanf:"pref_reason_min"`
	Epsilon       *float64 `koanf:"epsilon"`

	// Seed fixes the explore sampler; 0 seeds from the clock.
	Seed int64 `koanf:"seed"`
}

// RetentionConfig controls the background pruning service.
type RetentionConfig struct {
	RequestLogDays int           `koanf:"request_log_days"`
	SwipeEventDays int           `koanf:"swipe_event_days"` // 0 keeps swipes forever
	Interval       time.Duration `koanf:"interval"`
}

// AdminConfig guards the admin endpoints.
type AdminConfig struct {
	Token string `koanf:"token"`
}

// ObservabilityConfig controls request log sampling.
type ObservabilityConfig struct {
	// RequestLogSampleRate is the fraction of requests persisted to request_logs (0..1).
	RequestLogSampleRate float64 `koanf:"request_log_sample_rate"`

	// RequestLogMaxPerSecond caps request_logs inserts; 0 means unlimited.
	RequestLogMaxPerSecond float64 `koanf:"request_log_max_per_second"`
}

// ListenAddr returns host:port for the HTTP server.
func (s ServerConfig) ListenAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

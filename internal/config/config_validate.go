// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateObservability(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 0, got %d", c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	switch r.RankerMode {
	case "two_stage", "baseline":
	default:
		return fmt.Errorf("RANKER_MODE must be two_stage or baseline, got %q", r.RankerMode)
	}
	if strings.TrimSpace(r.DefaultModelVersion) == "" {
		return fmt.Errorf("DEFAULT_MODEL_VERSION is required")
	}
	if r.MaxDeckLimit < 1 {
		return fmt.Errorf("DECK_MAX_LIMIT must be >= 1, got %d", r.MaxDeckLimit)
	}
	if r.DefaultDeckLimit < 1 || r.DefaultDeckLimit > r.MaxDeckLimit {
		return fmt.Errorf("DECK_DEFAULT_LIMIT must be between 1 and %d, got %d", r.MaxDeckLimit, r.DefaultDeckLimit)
	}
	if r.RecentWindow <= 0 {
		return fmt.Errorf("RECENT_WINDOW must be positive")
	}
	if r.TopGenres < 0 || r.MaxPerTopGenre < 1 || r.CFMaxLikes < 1 {
		return fmt.Errorf("TOP_GENRES >= 0, MAX_PER_TOP_GENRE >= 1 and CF_MAX_LIKES >= 1 are required")
	}
	for _, w := range []struct {
		env   string
		value *float64
	}{
		{"POP_WEIGHT", r.PopWeight},
		{"PREF_WEIGHT", r.PrefWeight},
		{"CF_WEIGHT", r.CFWeight},
		{"TRENDING_BOOST", r.TrendingBoost},
	} {
		if w.value != nil && (*w.value < 0 || *w.value > 10) {
			return fmt.Errorf("%s must be between 0 and 10, got %g", w.env, *w.value)
		}
	}
	for _, th := range []struct {
		env   string
		value *float64
	}{
		{"CF_REASON_MIN", r.CFReasonMin},
		{"PREF_REASON_MIN", r.PrefReasonMin},
	} {
		if th.value != nil && (*th.value < 0 || *th.value > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %g", th.env, *th.value)
		}
	}
	if r.Epsilon != nil && *r.Epsilon <= 0 {
		return fmt.Errorf("SCORE_EPSILON must be positive, got %g", *r.Epsilon)
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.RequestLogDays < 0 || c.Retention.SwipeEventDays < 0 {
		return fmt.Errorf("retention days must be >= 0")
	}
	if c.Retention.Interval <= 0 {
		return fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateObservability() error {
	rate := c.Observability.RequestLogSampleRate
	if rate < 0 || rate > 1 {
		return fmt.Errorf("LOG_SAMPLE_RATE must be between 0 and 1, got %v", rate)
	}
	if c.Observability.RequestLogMaxPerSecond < 0 {
		return fmt.Errorf("REQUEST_LOG_MAX_PER_SEC must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

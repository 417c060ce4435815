// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

/*
Package middleware provides the HTTP middleware shared by the ReelSwipe API.

All middleware uses the standard func(http.Handler) http.Handler shape so it
plugs directly into a chi router.

# Available Middleware

RequestID:
  - Reuses the caller's X-Request-ID header or generates a UUID
  - Echoes the ID on every response
  - Stores it in the context for logging.Ctx

PrometheusMetrics:
  - Records reelswipe_http_requests_total and request duration
  - Labels by chi route pattern to keep cardinality bounded

AccessLogger:
  - Writes one structured zerolog line per request
  - Persists a sampled subset of requests to request_logs
  - Caps persisted rows per second with a token bucket

# Usage Example

	access := middleware.NewAccessLogger(middleware.AccessLogConfig{
		SampleRate:   0.25,
		MaxPerSecond: 50,
	}, db, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(access.Handler)
	r.Use(middleware.PrometheusMetrics)

Route keys stored in request_logs collapse the admin and event families
(GET /v1/admin/*, POST /v1/events/*) so the latency median can be computed
per logical route.
*/
package middleware

// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

/*
Package api provides the ReelSwipe HTTP API.

The router is built on go-chi/chi/v5 with go-chi/cors for cross-origin
requests and go-chi/httprate for per-IP rate limiting.

# Endpoints

Public:
  - GET  /health           - liveness plus deployment phase
  - GET  /v1/deck          - build a ranked deck (session_id, limit 1..50)
  - POST /v1/events/swipe  - record a like or skip
  - GET  /v1/profile       - session taste summary
  - GET  /metrics          - Prometheus exposition

Admin (Authorization: Bearer <token> or X-Admin-Token):
  - GET  /v1/metrics       - window metrics (window=Nh, 1..72)
  - GET  /v1/admin/model   - current and recent model versions
  - POST /v1/admin/model   - promote a known model version

# Response Format

Every JSON response carries ok and request_id, and every response carries
the X-Request-ID header:

	{"ok": true, "request_id": "...", ...payload}
	{"ok": false, "request_id": "...", "error": {"message": "..."}}

Server errors are reported as "internal error"; details go to the log only.
*/
package api

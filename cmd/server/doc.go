// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

/*
Package main is the entry point for the ReelSwipe API server.

The server serves swipe decks to anonymous sessions, records swipes and
impressions in DuckDB and exposes admin endpoints for model promotion and
window metrics.

# Application Architecture

Processes run under a Suture v4 supervisor tree:

	RootSupervisor ("reelswipe")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── Retention (request_logs / swipe_events pruning)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional YAML file and environment
 2. Logging: zerolog global logger
 3. Database: DuckDB store with schema creation
 4. Recommendation engine: retriever, rankers and impression recorder
 5. HTTP router: chi with request id, access log, metrics and CORS middleware
 6. Supervisor tree: HTTP server and retention services

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP service stops accepting
connections, waits for in-flight requests and flushes pending request-log
writes before the database is closed.

# Example Usage

	export ADMIN_TOKEN=$(openssl rand -hex 24)
	export DUCKDB_PATH=data/reelswipe.duckdb
	./reelswipe-server

See internal/config for the full list of environment variables.
*/
package main

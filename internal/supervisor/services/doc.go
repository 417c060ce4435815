// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

/*
Package services provides suture.Service wrappers for ReelSwipe components.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

and identifies itself through fmt.Stringer for supervisor logs.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Runs drain hooks after shutdown, e.g. flushing pending request logs

Retention (RetentionService):
  - Prunes request_logs older than the retention window on a ticker
  - Optionally prunes swipe_events by age
  - Reports pruned rows to reelswipe_retention_rows_pruned_total
*/
package services

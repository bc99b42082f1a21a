// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package services adapts long-running components to suture.Service.

HTTPServerService turns http.Server's blocking ListenAndServe into a
context-driven Serve with graceful shutdown.

RefreshService owns the pipeline lifecycle: it builds the first snapshot
on startup and rebuilds it every Interval. Startup failures are returned
so the supervisor retries with backoff, except configuration errors,
which terminate the tree.

CacheJanitorService sweeps expired entries out of the slate cache's
memory tier.
*/
package services

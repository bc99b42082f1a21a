// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package api serves the recommendation pipeline over HTTP.

Routes:

	GET  /api/v1/recommendations/{personID}?top_n=N   one slate
	POST /api/v1/recommendations/batch                slates plus fairness audit
	GET  /api/v1/diagnostics                          build and serving diagnostics
	POST /api/v1/admin/refresh                        rebuild the snapshot
	GET  /api/v1/admin/models                         persisted ALS factor versions
	GET  /health/live, /health/ready                  probes
	GET  /metrics                                     Prometheus

Every JSON answer uses the models.APIResponse envelope. Errors map as
follows: unknown person 404, malformed input 400, no model or open circuit
503, rate limited 429. A ranking call that exceeds the request timeout is
not an error: the client gets 200 with an empty slate whose fallback flag
is set.

Ranking calls run through a gobreaker circuit breaker. Manual refreshes
are limited by an x/time/rate token bucket on top of the per-IP httprate
limit.
*/
package api

// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package middleware holds the HTTP middleware shared by the API router.

All middleware take and return http.HandlerFunc; the api package adapts
them to chi with a small wrapper. Typical order, outermost first:

	RequestID          request and correlation IDs in context and header
	AccessLog          one zerolog line per request
	PrometheusMetrics  api_requests_total, api_request_duration_seconds
	Compression        gzip when the client accepts it
*/
package middleware

// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package middleware

import (
	"net/http"

	"github.com/tomtom215/internrank/internal/logging"
	"github.com/tomtom215/internrank/internal/validation"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// CorrelationIDHeader lets callers tie several requests together.
const CorrelationIDHeader = "X-Correlation-ID"

// RequestID reuses a well-formed X-Request-ID from upstream or generates a
// UUID, echoes it in the response and stores request and correlation IDs
// in the context for logging.Ctx.
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validation.IsEntityID(requestID) {
			requestID = logging.GenerateRequestID()
		}
		correlationID := r.Header.Get(CorrelationIDHeader)
		if !validation.IsEntityID(correlationID) {
			correlationID = logging.GenerateCorrelationID()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		next(w, r.WithContext(ctx))
	}
}

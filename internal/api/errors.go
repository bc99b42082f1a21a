// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/internrank/internal/models"
	"github.com/tomtom215/internrank/internal/recommend"
)

// classifyError maps pipeline and breaker errors to a status, code and
// client message.
func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, recommend.ErrUnknownPerson):
		return http.StatusNotFound, models.CodeNotFound, "Unknown person"
	case errors.Is(err, recommend.ErrInvalidConfig):
		return http.StatusBadRequest, models.CodeValidation, "Invalid request"
	case errors.Is(err, recommend.ErrModelUnavailable),
		errors.Is(err, recommend.ErrDataUnavailable):
		return http.StatusServiceUnavailable, models.CodeModelUnavailable, "Recommendation model is not available"
	case isBreakerRejection(err):
		return http.StatusServiceUnavailable, models.CodeModelUnavailable, "Recommendation service is temporarily unavailable"
	default:
		return http.StatusInternalServerError, models.CodeInternal, "Internal server error"
	}
}

// respondPipelineError writes the envelope for err.
func respondPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)
	respondError(w, r, status, code, message, err)
}

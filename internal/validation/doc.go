// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

// Package validation wraps go-playground/validator v10 behind a shared,
// lazily built instance and converts failures into the API's
// VALIDATION_ERROR shape.
//
//	type batchRequest struct {
//	    PersonIDs []string `validate:"required,min=1,max=500,dive,entity_id"`
//	    TopN      int      `validate:"gte=0,lte=100"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

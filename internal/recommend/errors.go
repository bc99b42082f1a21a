// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package recommend

import "errors"

var (
	// ErrDataUnavailable indicates an input table is missing or empty.
	// Loaders recover by substituting an empty or synthetic table.
	ErrDataUnavailable = errors.New("recommend: input data unavailable")

	// ErrModelUnavailable indicates the calibrated classifier or the
	// factorization backend could not be initialized. Emitting unscored
	// recommendations is unsafe, so this is fatal at pipeline construction.
	ErrModelUnavailable = errors.New("recommend: model unavailable")

	// ErrUnknownPerson indicates a ranking request for a person that is
	// not in the snapshot.
	ErrUnknownPerson = errors.New("recommend: unknown person")

	// ErrInvalidConfig indicates a configuration invariant was violated.
	ErrInvalidConfig = errors.New("recommend: invalid configuration")

	// ErrConstraintUnsatisfiable marks a fairness quota that could not be met.
	// It is only recorded in audits and never returned from ranking.
	ErrConstraintUnsatisfiable = errors.New("recommend: fairness constraint unsatisfiable")
)

// SlateError describes a violated slate invariant.
type SlateError struct {
	PersonID string
	Reason   string
}

func (e *SlateError) Error() string {
	return "recommend: invalid slate for person " + e.PersonID + ": " + e.Reason
}

// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package models defines the request and response shapes of the HTTP API.

Every endpoint answers with an APIResponse envelope. Successful calls carry
a recommend.Slate, a BatchResponse, pipeline diagnostics or a
RefreshResponse in Data; failures carry an APIError whose Code is one of
the Code* constants.

Request types carry validator tags checked by the validation package
before the pipeline is touched.
*/
package models

// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package api

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/internrank/internal/logging"
	"github.com/tomtom215/internrank/internal/metrics"
	"github.com/tomtom215/internrank/internal/recommend"
)

// rankBreakerName labels the ranking breaker in metrics.
const rankBreakerName = "rank"

// RankBreaker guards ranking calls. After enough consecutive failures the
// circuit opens and requests fail fast with gobreaker.ErrOpenState until
// the open timeout passes.
//
// Unknown persons and callers that went away are not failures; deadline
// expiry is, since it signals an overloaded pipeline.
type RankBreaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

// NewRankBreaker opens after failures consecutive failures and stays open
// for openTimeout.
func NewRankBreaker(failures uint32, openTimeout time.Duration) *RankBreaker {
	metrics.CircuitBreakerState.WithLabelValues(rankBreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        rankBreakerName,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= failures
			if trip {
				logging.Warn().
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening ranking circuit")
			}
			return trip
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateToString(from)).Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})
	return &RankBreaker{cb: cb}
}

// Execute runs fn through the breaker.
func (b *RankBreaker) Execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case countsAsSuccess(err):
		metrics.CircuitBreakerRequests.WithLabelValues(rankBreakerName, "success").Inc()
	case isBreakerRejection(err):
		metrics.CircuitBreakerRequests.WithLabelValues(rankBreakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(rankBreakerName, "failure").Inc()
	}
	return result, err
}

// State reports the breaker state as closed, half-open or open.
func (b *RankBreaker) State() string {
	return stateToString(b.cb.State())
}

func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, recommend.ErrUnknownPerson) ||
		errors.Is(err, context.Canceled)
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

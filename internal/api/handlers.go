// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package api

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/internrank/internal/config"
	"github.com/tomtom215/internrank/internal/recommend/pipeline"
)

// HandlerConfig holds the serving limits.
type HandlerConfig struct {
	// RequestTimeout is the hard deadline for one ranking call.
	RequestTimeout time.Duration

	// RefreshTimeout bounds one manual rebuild.
	RefreshTimeout time.Duration

	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration

	// RefreshPerMinute and RefreshBurst size the token bucket on
	// POST /api/v1/admin/refresh.
	RefreshPerMinute float64
	RefreshBurst     int

	Version string
}

// HandlerConfigFrom extracts the serving limits from cfg.
func HandlerConfigFrom(cfg *config.Config, version string) HandlerConfig {
	return HandlerConfig{
		RequestTimeout:     cfg.Server.RequestTimeout,
		RefreshTimeout:     cfg.Refresh.Timeout,
		BreakerFailures:    cfg.Server.BreakerFailures,
		BreakerOpenTimeout: cfg.Server.BreakerOpenTimeout,
		RefreshPerMinute:   cfg.Refresh.ManualPerMinute,
		RefreshBurst:       cfg.Refresh.ManualBurst,
		Version:            version,
	}
}

// Handler serves the recommendation API from whatever service the holder
// currently publishes. Each request reads the holder once, so a concurrent
// refresh never mixes two snapshots in one response.
//
// Handler methods are split across files:
//   - handlers_recommend.go: single and batch slates, diagnostics
//   - handlers_admin.go: manual snapshot refresh
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	holder    *pipeline.Holder
	cfg       HandlerConfig
	breaker   *RankBreaker
	refresh   *rate.Limiter
	startTime time.Time
}

// NewHandler creates a handler over holder.
func NewHandler(holder *pipeline.Holder, cfg HandlerConfig) *Handler {
	perMinute := cfg.RefreshPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	burst := cfg.RefreshBurst
	if burst < 1 {
		burst = 1
	}
	return &Handler{
		holder:    holder,
		cfg:       cfg,
		breaker:   NewRankBreaker(max(cfg.BreakerFailures, 1), cfg.BreakerOpenTimeout),
		refresh:   rate.NewLimiter(rate.Limit(perMinute/60), burst),
		startTime: time.Now(),
	}
}

// runWithTimeout runs fn under a deadline of timeout. timedOut is true
// when the deadline passed before fn returned; fn keeps running in the
// background and its result is discarded.
func runWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (result T, timedOut bool, err error) {
	if timeout <= 0 {
		result, err = fn(ctx)
		return result, false, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		if errors.Is(o.err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, true, nil
		}
		return o.v, false, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, true, nil
		}
		return result, false, ctx.Err()
	}
}

// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/internrank/internal/metrics"
	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/pipeline"
)

// SnapshotHolder publishes pipeline services; *pipeline.Holder satisfies it.
type SnapshotHolder interface {
	Ready() bool
	Rebuild(ctx context.Context) (*pipeline.Service, error)
}

// RefreshServiceConfig controls the build lifecycle.
type RefreshServiceConfig struct {
	// BuildOnStartup builds the first service when none is published yet.
	BuildOnStartup bool

	// Interval between periodic rebuilds; 0 disables them.
	Interval time.Duration

	// Timeout bounds one build.
	Timeout time.Duration
}

// RefreshService builds the first pipeline and then rebuilds it on a
// schedule. A failed startup build is returned to the supervisor, which
// retries with backoff; a failed periodic rebuild is logged and the
// previous service keeps serving.
type RefreshService struct {
	holder SnapshotHolder
	config RefreshServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRefreshService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshService(holder SnapshotHolder, cfg RefreshServiceConfig, logger zerolog.Logger) *RefreshService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &RefreshService{
		holder: holder,
		config: cfg,
		logger: logger.With().Str("service", "refresh").Logger(),
		name:   "refresh-service",
	}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	if s.config.BuildOnStartup && !s.holder.Ready() {
		if err := s.rebuild(ctx, "startup"); err != nil {
			if errors.Is(err, recommend.ErrInvalidConfig) {
				// Retrying cannot fix a bad configuration.
				s.logger.Error().Err(err).Msg("initial build rejected configuration")
				return fmt.Errorf("initial build: %w: %w", err, suture.ErrTerminateSupervisorTree)
			}
			return fmt.Errorf("initial build: %w", err)
		}
	}

	if s.config.Interval <= 0 {
		s.logger.Info().Msg("periodic refresh disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	s.logger.Info().Dur("interval", s.config.Interval).Msg("periodic refresh running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.rebuild(ctx, "periodic"); err != nil {
				s.logger.Warn().Err(err).Msg("periodic refresh failed, keeping current snapshot")
			}
		}
	}
}

func (s *RefreshService) rebuild(ctx context.Context, trigger string) error {
	buildCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	runID := uuid.NewString()
	start := time.Now()
	svc, err := s.holder.Rebuild(buildCtx)
	metrics.RecordRefresh(trigger, err)
	if err != nil {
		return fmt.Errorf("refresh run %s: %w", runID, err)
	}
	s.logger.Info().
		Str("run_id", runID).
		Str("trigger", trigger).
		Str("fingerprint", svc.Diagnostics().Fingerprint).
		Dur("duration", time.Since(start)).
		Msg("snapshot built")
	return nil
}

// String names the service in supervisor logs.
func (s *RefreshService) String() string {
	return s.name
}

// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ExpiringCache drops its expired entries on demand; *cache.SlateCache
// satisfies it.
type ExpiringCache interface {
	CleanupExpired() int
}

// CacheJanitorService sweeps expired slates out of the memory tier so
// entries for persons nobody asks about again do not hold memory until
// LRU eviction reaches them.
type CacheJanitorService struct {
	cache    ExpiringCache
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewCacheJanitorService creates the service. A non-positive interval
// defaults to 5 minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheJanitorService(c ExpiringCache, interval time.Duration, logger zerolog.Logger) *CacheJanitorService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheJanitorService{
		cache:    c,
		interval: interval,
		logger:   logger.With().Str("service", "cache-janitor").Logger(),
		name:     "cache-janitor",
	}
}

// Serve implements suture.Service.
func (s *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.cache.CleanupExpired(); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("expired slates removed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *CacheJanitorService) String() string {
	return s.name
}

// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package cache

import (
	"github.com/rs/zerolog"

	"github.com/tomtom215/internrank/internal/metrics"
	"github.com/tomtom215/internrank/internal/recommend"
)

// Stats are cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// HitRate returns hits / (hits + misses) as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// SlateCache is a two-tier slate cache: an in-memory LRU in front of an
// optional Badger store. Warm-tier hits are promoted to memory. Warm-tier
// errors are logged and treated as misses.
type SlateCache struct {
	memory *LRU[uint64, recommend.Slate]
	warm   *BadgerStore
	logger zerolog.Logger
}

// NewSlateCache builds the memory tier from cfg. warm may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSlateCache(cfg recommend.CacheConfig, warm *BadgerStore, logger zerolog.Logger) *SlateCache {
	return &SlateCache{
		memory: NewLRU[uint64, recommend.Slate](cfg.MaxEntries, cfg.TTL),
		warm:   warm,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Get looks key up in memory, then in the warm tier.
func (c *SlateCache) Get(key uint64) (recommend.Slate, bool) {
	if s, ok := c.memory.Get(key); ok {
		metrics.RecordCacheLookup("memory", true)
		return cloneSlate(&s), true
	}
	metrics.RecordCacheLookup("memory", false)
	if c.warm == nil {
		return recommend.Slate{}, false
	}

	s, ok, err := c.warm.Get(key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("warm cache read failed")
	}
	metrics.RecordCacheLookup("badger", ok)
	if !ok {
		return recommend.Slate{}, false
	}
	c.memory.Set(key, s)
	return cloneSlate(&s), true
}

// Set stores slate in both tiers.
func (c *SlateCache) Set(key uint64, slate *recommend.Slate) {
	c.memory.Set(key, cloneSlate(slate))
	metrics.CacheSize.WithLabelValues("memory").Set(float64(c.memory.Len()))
	if c.warm == nil {
		return
	}
	if err := c.warm.Set(key, slate); err != nil {
		c.logger.Warn().Err(err).Msg("warm cache write failed")
	}
}

// Purge empties both tiers, e.g. after a snapshot swap.
func (c *SlateCache) Purge() {
	c.memory.Clear()
	metrics.CacheSize.WithLabelValues("memory").Set(0)
	if c.warm == nil {
		return
	}
	if err := c.warm.Clear(); err != nil {
		c.logger.Warn().Err(err).Msg("warm cache purge failed")
	}
}

// CleanupExpired drops expired memory entries and returns how many. The
// warm tier expires entries through Badger's own TTL.
func (c *SlateCache) CleanupExpired() int {
	n := c.memory.CleanupExpired()
	metrics.CacheSize.WithLabelValues("memory").Set(float64(c.memory.Len()))
	return n
}

// Stats returns memory-tier counters.
func (c *SlateCache) Stats() Stats {
	return c.memory.Stats()
}

// cloneSlate copies the slices so callers cannot mutate cached state.
func cloneSlate(s *recommend.Slate) recommend.Slate {
	out := *s
	out.Entries = make([]recommend.SlateEntry, len(s.Entries))
	for i := range s.Entries {
		e := s.Entries[i]
		e.MissingSkills = append([]string(nil), e.MissingSkills...)
		out.Entries[i] = e
	}
	out.Constraints = append([]recommend.ConstraintResult(nil), s.Constraints...)
	return out
}

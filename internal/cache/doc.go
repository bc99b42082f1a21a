// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package cache provides the slate result cache.

Two tiers:

  - LRU: a generic, thread-safe least recently used map with per-entry TTL.
    Hit, miss and eviction counters are exposed through Stats.
  - BadgerStore: slates encoded as JSON in BadgerDB with a native TTL, so
    cached results survive a restart.

SlateCache puts the LRU in front of an optional BadgerStore. Warm-tier hits
are promoted to memory and returned values are deep copies. Keys are
uint64 hashes built by the caller; the pipeline hashes person id, slate
size and snapshot fingerprint, so a snapshot swap naturally misses.

Lookups are reported to the cache_hits_total and cache_misses_total
metrics with cache_type "memory" or "badger".
*/
package cache

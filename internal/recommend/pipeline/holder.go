// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/internrank/internal/recommend"
)

// Builder produces a fitted Service, typically by loading a fresh snapshot
// and calling New.
type Builder func(ctx context.Context) (*Service, error)

// Holder publishes the current Service. Readers take one Service per
// request and keep using it even if a rebuild swaps in a newer one.
type Holder struct {
	current atomic.Pointer[Service]

	// rebuildMu serializes rebuilds; readers never take it.
	rebuildMu sync.Mutex
	build     Builder
}

// NewHolder creates a holder that rebuilds with build. It holds no
// Service until Store or Rebuild succeeds.
func NewHolder(build Builder) *Holder {
	return &Holder{build: build}
}

// Load returns the current service, or nil before the first build.
func (h *Holder) Load() *Service {
	return h.current.Load()
}

// Get returns the current service or recommend.ErrModelUnavailable.
func (h *Holder) Get() (*Service, error) {
	s := h.current.Load()
	if s == nil {
		return nil, fmt.Errorf("%w: no pipeline built yet", recommend.ErrModelUnavailable)
	}
	return s, nil
}

// Store publishes s and returns the previous service.
func (h *Holder) Store(s *Service) *Service {
	return h.current.Swap(s)
}

// Ready reports whether a service is published.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Rebuild builds a new service and publishes it. On failure the current
// service stays in place. Concurrent calls run one at a time.
func (h *Holder) Rebuild(ctx context.Context) (*Service, error) {
	if h.build == nil {
		return nil, fmt.Errorf("%w: holder has no builder", recommend.ErrModelUnavailable)
	}
	h.rebuildMu.Lock()
	defer h.rebuildMu.Unlock()

	s, err := h.build(ctx)
	if err != nil {
		return nil, err
	}
	old := h.Store(s)
	if old != nil && old.cache != nil && old.fingerprint != s.fingerprint {
		old.cache.Purge()
	}
	return s, nil
}

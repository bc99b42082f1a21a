// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package config

import (
	"fmt"
	"slices"

	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/validation"
)

// Validate checks field tags first, then the cross-field invariants the
// pipeline enforces. Every failure wraps recommend.ErrInvalidConfig.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("%w: %s", recommend.ErrInvalidConfig, verr.Error())
	}
	if err := c.validateServing(); err != nil {
		return err
	}
	return c.Pipeline().Validate()
}

func (c *Config) validateServing() error {
	if c.Recommend.MaxTopN < c.Recommend.DefaultTopN {
		return fmt.Errorf("%w: recommend.max_top_n (%d) is below recommend.default_top_n (%d)",
			recommend.ErrInvalidConfig, c.Recommend.MaxTopN, c.Recommend.DefaultTopN)
	}
	if c.Cache.Persistent.Enabled && !c.Cache.Enabled {
		return fmt.Errorf("%w: cache.persistent requires cache.enabled", recommend.ErrInvalidConfig)
	}
	if c.IsProduction() && c.Refresh.Interval > 0 && c.Refresh.Interval < c.Refresh.Timeout {
		return fmt.Errorf("%w: refresh.interval (%s) is shorter than refresh.timeout (%s)",
			recommend.ErrInvalidConfig, c.Refresh.Interval, c.Refresh.Timeout)
	}
	return nil
}

// ShouldWarnAboutCORS reports a wildcard origin in production.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.IsProduction() && slices.Contains(c.Security.CORSOrigins, "*")
}

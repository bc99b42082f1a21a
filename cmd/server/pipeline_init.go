// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package main

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/internrank/internal/cache"
	"github.com/tomtom215/internrank/internal/config"
	"github.com/tomtom215/internrank/internal/dataset"
	"github.com/tomtom215/internrank/internal/recommend/pipeline"
	"github.com/tomtom215/internrank/internal/recommend/storage"
)

// PipelineComponents holds what the pipeline needs across rebuilds.
type PipelineComponents struct {
	Holder *pipeline.Holder
	Cache  *cache.SlateCache
	Models *storage.Store

	warmDB *badger.DB
}

// Close releases the warm cache database.
func (c *PipelineComponents) Close() error {
	if c.warmDB == nil {
		return nil
	}
	return c.warmDB.Close()
}

// initPipeline opens the optional cache tiers and model store and returns
// a holder whose builder reloads the dataset and fits a new service. The
// cache and model store outlive individual services.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func initPipeline(cfg *config.Config, logger zerolog.Logger) (*PipelineComponents, error) {
	comps := &PipelineComponents{}
	pcfg := cfg.Pipeline()

	if cfg.Cache.Enabled {
		var warm *cache.BadgerStore
		if cfg.Cache.Persistent.Enabled {
			db, err := cache.OpenBadger(cfg.Cache.Persistent.Dir)
			if err != nil {
				return nil, fmt.Errorf("open warm cache: %w", err)
			}
			comps.warmDB = db
			warm = cache.NewBadgerStore(db, cfg.Cache.Persistent.TTL)
			logger.Info().Str("dir", cfg.Cache.Persistent.Dir).Msg("Persistent slate cache enabled")
		}
		comps.Cache = cache.NewSlateCache(pcfg.Cache, warm, logger)
	}

	if cfg.Recommend.ModelDir != "" {
		st, err := storage.NewStore(cfg.Recommend.ModelDir)
		if err != nil {
			_ = comps.Close()
			return nil, fmt.Errorf("open model store: %w", err)
		}
		comps.Models = st
		logger.Info().Str("dir", cfg.Recommend.ModelDir).Msg("ALS factor persistence enabled")
	}

	var opts []pipeline.Option
	if comps.Cache != nil {
		opts = append(opts, pipeline.WithCache(comps.Cache))
	}
	if comps.Models != nil {
		opts = append(opts, pipeline.WithModelStore(comps.Models))
	}

	loader := dataset.NewLoader(cfg.Dataset(), logger)
	comps.Holder = pipeline.NewHolder(func(ctx context.Context) (*pipeline.Service, error) {
		snap, _, err := loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		return pipeline.New(ctx, snap, pcfg, logger, opts...)
	})
	return comps, nil
}

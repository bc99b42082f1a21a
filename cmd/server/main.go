// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tomtom215/internrank/internal/api"
	"github.com/tomtom215/internrank/internal/config"
	"github.com/tomtom215/internrank/internal/logging"
	"github.com/tomtom215/internrank/internal/metrics"
	"github.com/tomtom215/internrank/internal/supervisor"
	"github.com/tomtom215/internrank/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Fields:    map[string]string{"version": version, "environment": cfg.Server.Environment},
		Output:    os.Stderr,
	})

	logging.Info().Str("go_version", runtime.Version()).Msg("Starting InternRank")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows all origins in production; set CORS_ORIGINS to restrict it")
	}

	// === PIPELINE ===

	logger := logging.Logger()
	comps, err := initPipeline(cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close warm cache")
		}
	}()

	// === HTTP ===

	handler := api.NewHandler(comps.Holder, api.HandlerConfigFrom(cfg, version))
	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Security.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Security.RateLimitDisabled
	router := api.NewRouter(handler, mwCfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddPipelineService(services.NewRefreshService(comps.Holder, services.RefreshServiceConfig{
		BuildOnStartup: true,
		Interval:       cfg.Refresh.Interval,
		Timeout:        cfg.Refresh.Timeout,
	}, logger))
	logging.Info().Dur("interval", cfg.Refresh.Interval).Msg("Refresh service added")

	if comps.Cache != nil {
		tree.AddPipelineService(services.NewCacheJanitorService(comps.Cache, cfg.Cache.TTL, logger))
		logging.Info().Dur("interval", cfg.Cache.TTL).Msg("Cache janitor added")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel carries exactly one result and is never closed.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("InternRank stopped")
}

// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package main is the entry point for the InternRank server.

InternRank ranks internship opportunities for each student by blending
TF-IDF content similarity with ALS collaborative filtering, attaches a
calibrated placement probability, and re-ranks each slate so protected
groups meet configured quota shares.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("internrank")
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── Refresh service (startup build, periodic rebuilds)
	│   └── Cache janitor (sweeps expired slates)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Startup order:

 1. Configuration: Koanf v2 with defaults, YAML file and environment
 2. Logging: zerolog with JSON or console output
 3. Pipeline: slate cache (memory, optional Badger tier), optional ALS
    factor store and the snapshot holder
 4. HTTP: Chi router with rate limiting, CORS and Prometheus metrics
 5. Supervisor tree: the refresh service builds the first pipeline; the
    HTTP server answers /health/ready with 503 until it is published

# Configuration

	HTTP_PORT=8080               # listener port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	DATA_DIR=./data              # CSV tables
	DATA_SYNTHETIC_FALLBACK=true # generate a sample when tables are missing
	RECOMMEND_CF_WEIGHT=0.4      # collaborative share of the blend
	FAIRNESS_CONSTRAINTS=locale=0.3,tier=0.3,gender=0.2
	REFRESH_INTERVAL=1h          # 0 disables periodic rebuilds
	CACHE_PERSISTENT=true CACHE_DIR=./cache

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests within SHUTDOWN_TIMEOUT, the refresh service abandons
any running build, and services that miss the supervisor timeout are
reported before exit.
*/
package main

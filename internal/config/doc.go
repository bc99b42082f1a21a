// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package config loads process configuration with koanf v2.

Sources, lowest to highest priority:

 1. Built-in defaults, taken from recommend.DefaultConfig and
    dataset.DefaultConfig
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml or
    /etc/internrank/config.yaml
 3. Environment variables listed in envMappings

Example config.yaml:

	server:
	  port: 8080
	  request_timeout: 10s
	data:
	  dir: /data
	  synthetic_fallback: false
	recommend:
	  weights:
	    content: 0.6
	    cf: 0.4
	  als:
	    factors: 50
	    solver: optimized
	fairness:
	  k: 10
	  constraints:
	    - {attribute: locale, share: 0.3}
	    - {attribute: tier, share: 0.3}
	    - {attribute: gender, share: 0.2}
	cache:
	  enabled: true
	  ttl: 10m
	  persistent:
	    enabled: true
	    dir: /data/cache

Common environment variables:

	HTTP_PORT                 server.port
	REQUEST_TIMEOUT           server.request_timeout
	DATA_DIR                  data.dir
	RECOMMEND_CONTENT_WEIGHT  recommend.weights.content
	RECOMMEND_CF_WEIGHT       recommend.weights.cf
	ALS_SOLVER                recommend.als.solver
	FAIRNESS_K                fairness.k
	FAIRNESS_CONSTRAINTS      fairness.constraints, e.g. "locale=0.3,tier=0.3"
	CACHE_DIR                 cache.persistent.dir
	REFRESH_INTERVAL          refresh.interval
	LOG_LEVEL                 logging.level

Validate runs validator tags through the validation package and then the
pipeline's own cross-field checks (blend weights summing to 1, unique
fairness attributes and so on). Config.Pipeline and Config.Dataset convert
the loaded settings for the pipeline and dataset packages.
*/
package config

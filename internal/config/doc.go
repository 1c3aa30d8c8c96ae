// Package config provides centralized configuration management for the fares
// processor. It loads configuration from multiple sources, validates it, and
// resolves the file system paths a run reads and writes.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. YAML file (config.yaml, configs/config.yaml or $FARES_CONFIG_FILE)
//  3. A .env file in the working directory (never overrides real env vars)
//  4. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern FARES_<SECTION>_<FIELD>:
//
//	FARES_PATHS_INPUT_FILE=data/uber.csv
//	FARES_PATHS_OUTPUT_DIR=output
//	FARES_LOGGING_LEVEL=debug
//	FARES_PIPELINE_OUTLIER_MULTIPLIER=1.5
//	FARES_TELEMETRY_TRACING=true
//
// # Path Management
//
// NewPaths turns the configured values into absolute paths. Artifact names
// given without a directory are placed in the output directory:
//
//	paths, err := config.NewPaths(cfg)
//	if err := paths.EnsureDirectories(); err != nil { ... }
package config

// Package config loads and validates the application configuration.
//
// Values are resolved in increasing order of precedence:
//
//	1. Default() values
//	2. A YAML file (CAMPAIGN_CONFIG, ./config.yaml or ./configs/config.yaml)
//	3. Environment variables with the CAMPAIGN_ prefix
//
// Example environment:
//
//	CAMPAIGN_ANALYSIS_CLUSTERS=5
//	CAMPAIGN_ANALYSIS_REFERENCE_DATE=2024-12-31
//	CAMPAIGN_PATHS_BASE_DIR=/var/lib/campaignpulse
//	CAMPAIGN_LOGGING_LEVEL=debug
//
// The loaded struct is validated with go-playground/validator tags; failures
// are returned as CONFIG application errors.
//
// Paths derives the on-disk layout (processed data, per-engine output
// directories, logs) from a single base directory.
package config

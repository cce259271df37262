// Package config loads and validates the application configuration.
//
// Configuration is layered: compiled-in defaults, then an optional
// YAML file (config.yaml or configs/config.yaml), then DQ_* prefixed
// environment variables. Pipeline behavior (sentinels, thresholds,
// category rules, geocode table) is YAML-only; server and path
// settings also accept environment overrides.
package config

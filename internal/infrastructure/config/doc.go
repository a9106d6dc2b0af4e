// Package config loads and validates Hearth Core configuration.
//
// Configuration comes from three layers, later layers overriding earlier:
//
//  1. Hardcoded defaults
//  2. YAML file (configs/config.yaml)
//  3. HEARTH_* environment variables
//
// Secrets (JWT secret, admin password, MQTT credentials, InfluxDB token)
// should be supplied via environment variables rather than committed to the
// YAML file.
//
// Per-integration credentials do NOT live here. Each configured integration
// instance is a config entry persisted in SQLite (see internal/platform);
// this package only carries process-level settings such as poll intervals.
package config

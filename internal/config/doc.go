// Package config loads, normalizes, and validates ascbridge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Connection parameters are exposed as
// ConnectionParams so the connector can validate them before each connect
// attempt instead of at load time.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config

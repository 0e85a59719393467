// Package config loads, normalizes, and validates dropspool configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as DROPSPOOL_ROOT and
// DROPSPOOL_MACHINE. The spool root is the single source of truth for the
// lifecycle directories; everything beneath it is derived rather than
// configured.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, a sanitized machine identifier, and clear validation errors.
package config

// Package api defines wire-format types for the status HTTP endpoint and the
// CLI's machine-readable output.
//
// # Key Types
//
// JobEntry: one job artifact with its lifecycle location and the metadata
// parsed from its stage names (machine, claim and finish timestamps).
//
// SpoolListing: every job in incoming, work and out plus per-location counts.
//
// DaemonStatus: a running instance's loop counters, its last iteration and the
// preflight results it started with.
//
// # Design Notes
//
// DTOs use camelCase JSON and YAML tags. Timestamps use RFC3339 with
// milliseconds. Durations are exposed as fractional seconds.
package api

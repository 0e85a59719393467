// Package main hosts the dropspool CLI entrypoint and command graph.
//
// Invoked without a subcommand, dropspool runs the spool loop in the
// foreground against the configured (or given) spool root until interrupted.
// The remaining commands prepare a spool layout, inspect its contents, and
// scaffold configuration.
package main

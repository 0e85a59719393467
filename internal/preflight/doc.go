// Package preflight provides readiness checks for the filesystem paths and
// listen address dropspool depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll before starting the spool loop. Any failure is
//     fatal: a missing lifecycle directory is a configuration error, not
//     something the loop should retry.
//   - The CLI "dropspool status" command shows the same results so operators
//     can see why a daemon refused to start.
package preflight

// Package daemon coordinates the long-running dropspool process.
//
// It wires configuration, the directory queue, the job runner and the spool
// loop into a single lifecycle with flock-based locking so two instances with
// the same machine name never share a host. The daemon runs preflight checks
// before starting, keeps a status snapshot fed by every loop iteration, records
// metrics, and optionally serves /metrics, /healthz and /status over HTTP.
//
// Keep orchestration here: the loop itself lives in the spooler package and
// filesystem semantics live in spool.
package daemon

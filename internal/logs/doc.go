// Package logs locates and reads job run logs in the results directory.
//
// A run log is named after the job's work name, so a job can be looked up by
// its original basename, its work name or its out name. Tail streams the end
// of a log with bounded memory and can follow a log that a running job is
// still writing.
package logs

// Package spool owns the on-disk job lifecycle.
//
// A spool root holds four directories: incoming (where producers drop
// executable jobs), work (jobs claimed by a spooler instance), out (finished
// jobs) and results (the working directory jobs run in, which also collects
// their run logs). Jobs move between them only by rename, so the rename into
// work is the one synchronization point between instances sharing a root.
package spool

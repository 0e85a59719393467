// Package spooler drives the spool lifecycle loop.
//
// Each iteration lists the jobs waiting in incoming, picks one at random,
// claims it into work under a timestamped machine-tagged name, runs it from
// the results directory, and moves it into out under a second timestamped
// name. When nothing is waiting the loop sleeps for a random interval so that
// instances sharing a spool root do not poll in lockstep. Failures inside an
// iteration, including panics, are logged and never stop the loop.
package spooler

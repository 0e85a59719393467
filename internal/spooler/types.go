package spooler

import (
	"context"
	"time"

	"dropspool/internal/runner"
	"dropspool/internal/spool"
)

// Outcome classifies a single loop iteration.
type Outcome string

const (
	// Processed means a job was claimed, run and moved to out.
	Processed Outcome = "processed"
	// Idle means no candidates were waiting and the loop slept.
	Idle Outcome = "idle"
	// Skipped means another instance claimed the selected job first.
	Skipped Outcome = "skipped"
	// Failed means the iteration hit an error or panic.
	Failed Outcome = "failed"
)

// Result reports what one iteration did.
type Result struct {
	Outcome       Outcome
	CorrelationID string
	Candidates    int

	// Job is the original basename of the selected job.
	Job      string
	WorkName string
	OutName  string
	LogPath  string
	Start    time.Time
	End      time.Time
	Elapsed  time.Duration
	ExitCode int
	// Ran is set once the job process was started.
	Ran bool

	Slept time.Duration
	Err   error
}

// Clock supplies timestamps for stage names.
type Clock interface {
	Now() time.Time
}

// Sleeper waits for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Rand is the random source used for selection and idle jitter.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// JobQueue is the directory queue the loop consumes.
type JobQueue interface {
	ListCandidates(ctx context.Context) ([]spool.Job, error)
	Claim(job spool.Job, newName string) (spool.Job, error)
	Finish(job spool.Job, newName string) (spool.Job, error)
	Release(job spool.Job) (spool.Job, error)
}

// Executor runs a claimed job.
type Executor interface {
	Run(ctx context.Context, jobPath, logPath string) (runner.Result, error)
}

// Observer receives every iteration result.
type Observer func(ctx context.Context, result Result)

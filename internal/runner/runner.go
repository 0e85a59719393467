// Package runner executes claimed jobs as subprocesses.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"dropspool/internal/logging"
)

// ErrLaunch marks a job that could not be started at all.
var ErrLaunch = errors.New("job launch failed")

// DefaultGrace is how long a signalled job may take to exit before it is killed.
const DefaultGrace = 10 * time.Second

// Result describes a finished job process.
type Result struct {
	ExitCode int
	Duration time.Duration
	LogPath  string
	// Started is set once the process was launched.
	Started bool
	// Interrupted is set when the run context ended before the job exited.
	Interrupted bool
}

// Success reports whether the job exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.Interrupted
}

// Options configures a Runner.
type Options struct {
	// Grace bounds the wait between SIGTERM and SIGKILL on cancellation.
	Grace  time.Duration
	Logger *slog.Logger
}

// Runner executes jobs with the results directory as working directory.
type Runner struct {
	dir    string
	grace  time.Duration
	logger *slog.Logger
}

// New constructs a Runner that runs jobs inside resultsDir.
func New(resultsDir string, opts Options) *Runner {
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Runner{
		dir:    resultsDir,
		grace:  grace,
		logger: logging.NewComponentLogger(opts.Logger, "runner"),
	}
}

// Dir returns the working directory jobs run in.
func (r *Runner) Dir() string {
	return r.dir
}

// Run executes jobPath directly, without a shell, writing its combined stdout
// and stderr to logPath. A non-zero exit status is reported in Result, not as
// an error. Failures to start the process wrap ErrLaunch; a context that ends
// before the launch returns the context error with Started unset.
func (r *Runner) Run(ctx context.Context, jobPath, logPath string) (Result, error) {
	result := Result{ExitCode: -1, LogPath: logPath}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	path, err := filepath.Abs(jobPath)
	if err != nil {
		return result, fmt.Errorf("%w: resolve %s: %w", ErrLaunch, jobPath, err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return result, fmt.Errorf("%w: open run log: %w", ErrLaunch, err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = r.dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.grace

	started := time.Now()
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = os.Remove(logPath)
			return result, ctxErr
		}
		return result, fmt.Errorf("%w: %s: %w", ErrLaunch, path, err)
	}
	result.Started = true
	logging.WithContext(ctx, r.logger).Debug(
		"job process started",
		logging.String(logging.FieldEventType, "job_process_start"),
		logging.Int("pid", cmd.Process.Pid),
		logging.String("log_path", logPath),
	)

	waitErr := cmd.Wait()
	result.Duration = time.Since(started)
	result.Interrupted = ctx.Err() != nil
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil, errors.As(waitErr, &exitErr):
		return result, nil
	case result.Interrupted:
		return result, nil
	default:
		return result, fmt.Errorf("wait for %s: %w", path, waitErr)
	}
}

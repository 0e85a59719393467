package spooler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"

	"dropspool/internal/logging"
	"dropspool/internal/naming"
	"dropspool/internal/spool"
)

func (l *Loop) process(ctx context.Context, logger *slog.Logger, job spool.Job, result *Result) {
	result.Job = job.Base()
	ctx = logging.WithJob(ctx, result.Job)
	logger = logger.With(logging.String(logging.FieldJob, result.Job))

	defer func() {
		if r := recover(); r != nil {
			result.Outcome = Failed
			result.Err = fmt.Errorf("panic while processing %s: %v", result.Job, r)
			logging.ErrorWithContext(logger, "job processing panicked", "job_panic",
				logging.Any("panic", r),
				logging.Stack(debug.Stack()),
				logging.String(logging.FieldErrorHint, "inspect the stack trace; the loop continues with the next job"),
			)
		}
	}()

	// Claiming
	result.Start = l.clock.Now()
	result.WorkName = naming.StageName(result.Start, l.machine, result.Job)
	claimed, err := l.queue.Claim(job, result.WorkName)
	if err != nil {
		result.Err = err
		if errors.Is(err, spool.ErrRaceLost) {
			result.Outcome = Skipped
			logger.Debug("job claimed elsewhere",
				logging.String(logging.FieldStage, "claim"),
				logging.String(logging.FieldEventType, "claim_race_lost"),
			)
			return
		}
		result.Outcome = Failed
		logging.ErrorWithContext(logger, "failed to claim job", "claim_failed",
			logging.String(logging.FieldStage, "claim"),
			logging.String("work_name", result.WorkName),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the work directory"),
		)
		return
	}
	logger.Info("job claimed",
		logging.String(logging.FieldStage, "claim"),
		logging.String(logging.FieldEventType, "job_claimed"),
		logging.String("work_name", result.WorkName),
	)

	// Running
	result.LogPath = filepath.Join(l.results, result.WorkName+".log")
	runResult, runErr := l.exec.Run(logging.WithStage(ctx, "run"), claimed.Path, result.LogPath)
	result.Ran = runResult.Started
	result.ExitCode = runResult.ExitCode
	if !runResult.Started && ctx.Err() != nil {
		l.release(ctx, logger, claimed, result)
		return
	}
	if runErr != nil {
		logging.ErrorWithContext(logger, "job failed to run", "job_run_failed",
			logging.String(logging.FieldStage, "run"),
			logging.String("job_path", claimed.Path),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "ensure the job file is executable"),
		)
	}

	// Finalizing
	result.End = l.clock.Now()
	result.Elapsed = result.End.Sub(result.Start)
	result.OutName = naming.StageName(result.End, l.machine, claimed.FileName())
	_, finishErr := l.queue.Finish(claimed, result.OutName)
	if finishErr != nil {
		logging.ErrorWithContext(logger, "failed to move job to out", "finalize_failed",
			logging.String(logging.FieldStage, "finalize"),
			logging.String("work_path", claimed.Path),
			logging.String("out_name", result.OutName),
			logging.Error(finishErr),
			logging.String(logging.FieldErrorHint, "the job stays in work and is not retried automatically"),
		)
	}

	if err := errors.Join(runErr, finishErr); err != nil {
		result.Outcome = Failed
		result.Err = err
		return
	}
	result.Outcome = Processed

	attrs := []logging.Attr{
		logging.String(logging.FieldStage, "finalize"),
		logging.String(logging.FieldEventType, "job_finished"),
		logging.Duration("elapsed", result.Elapsed),
		logging.Time("started", result.Start),
		logging.Int("exit_code", result.ExitCode),
		logging.String("out_name", result.OutName),
	}
	if runResult.Interrupted {
		attrs = append(attrs, logging.Bool("interrupted", true))
	}
	if result.ExitCode != 0 {
		logging.WarnWithContext(logger, "job finished with non-zero exit", "job_finished",
			append(attrs,
				logging.String("run_log", result.LogPath),
				logging.String(logging.FieldErrorHint, "see the run log in the results directory"),
				logging.String(logging.FieldImpact, "job moved to out; its output may be incomplete"),
			)...,
		)
		return
	}
	logger.Info("job finished", logging.Args(attrs...)...)
}

// release puts a job claimed just before shutdown back into incoming. It never
// ran, so moving it to out would mark it finished.
func (l *Loop) release(ctx context.Context, logger *slog.Logger, claimed spool.Job, result *Result) {
	result.Outcome = Failed
	result.Err = fmt.Errorf("job %s not started: %w", result.Job, ctx.Err())
	result.LogPath = ""

	released, err := l.queue.Release(claimed)
	if err != nil {
		result.Err = errors.Join(result.Err, err)
		logging.ErrorWithContext(logger, "failed to return unstarted job to incoming", "release_failed",
			logging.String(logging.FieldStage, "run"),
			logging.String("work_path", claimed.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "move the job from work back to incoming to run it"),
		)
		return
	}
	logging.WarnWithContext(logger, "shutdown before job started; returned to incoming", "job_released",
		logging.String(logging.FieldStage, "run"),
		logging.String("incoming_path", released.Path),
		logging.String(logging.FieldErrorHint, "the job runs on the next start"),
		logging.String(logging.FieldImpact, "job was not run"),
	)
}

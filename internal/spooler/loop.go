package spooler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dropspool/internal/logging"
)

const (
	DefaultIdleMin = 1 * time.Second
	DefaultIdleMax = 6 * time.Second
)

// Options configures a Loop. Machine and ResultsDir are required.
type Options struct {
	Machine    string
	ResultsDir string
	IdleMin    time.Duration
	IdleMax    time.Duration

	Clock    Clock
	Sleeper  Sleeper
	Rand     Rand
	Logger   *slog.Logger
	Observer Observer
}

// Loop is a single-threaded spooler bound to one queue and executor.
type Loop struct {
	queue    JobQueue
	exec     Executor
	machine  string
	results  string
	idleMin  time.Duration
	idleMax  time.Duration
	clock    Clock
	sleeper  Sleeper
	rnd      Rand
	logger   *slog.Logger
	observer Observer
}

// New constructs a Loop.
func New(queue JobQueue, exec Executor, opts Options) (*Loop, error) {
	if queue == nil {
		return nil, errors.New("spooler: queue is required")
	}
	if exec == nil {
		return nil, errors.New("spooler: executor is required")
	}
	if opts.Machine == "" {
		return nil, errors.New("spooler: machine name is required")
	}
	if opts.ResultsDir == "" {
		return nil, errors.New("spooler: results directory is required")
	}
	idleMin, idleMax := opts.IdleMin, opts.IdleMax
	if idleMin <= 0 {
		idleMin = DefaultIdleMin
	}
	if idleMax <= 0 {
		idleMax = DefaultIdleMax
	}
	if idleMax < idleMin {
		return nil, fmt.Errorf("spooler: idle max %s below idle min %s", idleMax, idleMin)
	}
	l := &Loop{
		queue:    queue,
		exec:     exec,
		machine:  opts.Machine,
		results:  opts.ResultsDir,
		idleMin:  idleMin,
		idleMax:  idleMax,
		clock:    opts.Clock,
		sleeper:  opts.Sleeper,
		rnd:      opts.Rand,
		logger:   logging.NewComponentLogger(opts.Logger, "spooler").With(logging.String(logging.FieldMachine, opts.Machine)),
		observer: opts.Observer,
	}
	if l.clock == nil {
		l.clock = systemClock{}
	}
	if l.sleeper == nil {
		l.sleeper = contextSleeper{}
	}
	if l.rnd == nil {
		l.rnd = globalRand{}
	}
	return l, nil
}

// Run repeats Step until ctx is done. It returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("spooler started",
		logging.String(logging.FieldEventType, "spooler_start"),
		logging.Duration("idle_min", l.idleMin),
		logging.Duration("idle_max", l.idleMax),
	)
	defer l.logger.Info("spooler stopped", logging.String(logging.FieldEventType, "spooler_stop"))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		l.Step(ctx)
	}
}

// Step runs exactly one iteration: poll, then either idle or select, claim,
// run and finalize one job.
func (l *Loop) Step(ctx context.Context) (result Result) {
	result.CorrelationID = uuid.NewString()
	ctx = logging.WithCorrelationID(ctx, result.CorrelationID)
	logger := logging.WithContext(ctx, l.logger)
	defer func() {
		if l.observer != nil {
			l.observer(ctx, result)
		}
	}()

	candidates, err := l.queue.ListCandidates(ctx)
	if err != nil {
		result.Outcome = Failed
		result.Err = err
		if ctx.Err() == nil {
			logging.ErrorWithContext(logger, "failed to list incoming jobs", "poll_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the spool root and its incoming directory are reachable"),
			)
			result.Slept = l.idle(ctx)
		}
		return result
	}
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		result.Outcome = Idle
		result.Slept = l.idle(ctx)
		return result
	}

	selected := candidates[l.rnd.IntN(len(candidates))]
	l.process(ctx, logger, selected, &result)
	if result.Outcome == Failed && !result.Ran {
		// Nothing ran; back off so a persistent claim error does not spin.
		result.Slept = l.idle(ctx)
	}
	return result
}

// IdleDuration returns a uniformly random duration in [idleMin, idleMax).
func (l *Loop) IdleDuration() time.Duration {
	span := l.idleMax - l.idleMin
	if span <= 0 {
		return l.idleMin
	}
	return l.idleMin + time.Duration(l.rnd.Float64()*float64(span))
}

func (l *Loop) idle(ctx context.Context) time.Duration {
	d := l.IdleDuration()
	if err := l.sleeper.Sleep(ctx, d); err != nil {
		return 0
	}
	return d
}

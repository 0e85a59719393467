package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"dropspool/internal/api"
	"dropspool/internal/config"
	"dropspool/internal/logging"
	"dropspool/internal/observability"
	"dropspool/internal/preflight"
	"dropspool/internal/runner"
	"dropspool/internal/spool"
	"dropspool/internal/spooler"
)

// ErrAlreadyRunning reports a held instance lock.
var ErrAlreadyRunning = errors.New("another dropspool instance is already running for this machine")

// Option adjusts daemon construction.
type Option func(*options)

type options struct {
	tuneLoop func(*spooler.Options)
}

// WithLoopOptions lets callers adjust the spool loop options before the loop
// is built, e.g. to inject a clock or sleeper in tests.
func WithLoopOptions(fn func(*spooler.Options)) Option {
	return func(o *options) {
		o.tuneLoop = fn
	}
}

// Daemon runs the spool loop in the background and enforces single-instance
// execution per machine name.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	layout  spool.Layout
	loop    *spooler.Loop
	metrics *observability.Metrics
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.RWMutex
	startedAt time.Time
	stats     api.LoopStats
	lastPoll  time.Time
	lastJob   *api.Iteration
	lastErr   string
	current   string
	candidate int
	checks    []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	metrics, metricsHandler, err := observability.NewMetrics(context.Background(), cfg.Spool.MachineName)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		layout:   cfg.Layout(),
		metrics:  metrics,
		lockPath: cfg.LockPath(),
	}
	if cfg.Spool.SingleInstance {
		d.lock = flock.New(d.lockPath)
	}

	exec := &instrumentedExecutor{
		next:   runner.New(d.layout.ResultsDir(), runner.Options{Grace: cfg.ShutdownGrace(), Logger: logger}),
		daemon: d,
	}
	loopOpts := spooler.Options{
		Machine:    cfg.Spool.MachineName,
		ResultsDir: d.layout.ResultsDir(),
		IdleMin:    cfg.IdleMin(),
		IdleMax:    cfg.IdleMax(),
		Logger:     logger,
		Observer:   d.observe,
	}
	if o.tuneLoop != nil {
		o.tuneLoop(&loopOpts)
	}
	loop, err := spooler.New(spool.NewQueue(d.layout), exec, loopOpts)
	if err != nil {
		return nil, fmt.Errorf("create spool loop: %w", err)
	}
	d.loop = loop
	d.api = newAPIServer(cfg.Metrics.Bind, d, metricsHandler, logger)
	return d, nil
}

// Start runs preflight, takes the instance lock and launches the spool loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	checks := preflight.RunAll(d.cfg)
	d.mu.Lock()
	d.checks = checks
	d.mu.Unlock()
	if err := preflight.Err(checks); err != nil {
		return err
	}

	if d.lock != nil {
		ok, err := d.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, d.lockPath)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.unlock()
		return err
	}

	d.cancel = cancel
	d.mu.Lock()
	d.startedAt = time.Now()
	d.mu.Unlock()
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.loop.Run(runCtx); err != nil {
			d.logger.Error("spool loop exited", logging.Error(err))
		}
	}()

	d.logger.Info("dropspool daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("spool_root", d.layout.Root),
		logging.String(logging.FieldMachine, d.cfg.Spool.MachineName),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop cancels the loop, waits for the in-flight iteration to finish and
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	d.unlock()
	d.running.Store(false)
	d.logger.Info("dropspool daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Running reports whether the loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddress returns the bound status endpoint address, if serving.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns a snapshot of daemon state.
func (d *Daemon) Status() api.DaemonStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	status := api.DaemonStatus{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		Machine:    d.cfg.Spool.MachineName,
		SpoolRoot:  d.layout.Root,
		StartedAt:  api.FormatTime(d.startedAt),
		CurrentJob: d.current,
		LastPollAt: api.FormatTime(d.lastPoll),
		Candidates: d.candidate,
		Stats:      d.stats,
		LastError:  d.lastErr,
		Preflight:  api.FromPreflight(d.checks),
	}
	if d.lock != nil {
		status.LockFilePath = d.lockPath
	}
	if d.lastJob != nil {
		last := *d.lastJob
		status.LastJob = &last
	}
	return status
}

func (d *Daemon) unlock() {
	if d.lock == nil {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

func (d *Daemon) observe(ctx context.Context, result spooler.Result) {
	d.metrics.RecordIteration(ctx, string(result.Outcome), result.Candidates, result.Slept.Seconds())

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastPoll = time.Now()
	d.candidate = result.Candidates
	d.stats.Iterations++
	switch result.Outcome {
	case spooler.Processed:
		d.stats.Processed++
	case spooler.Idle:
		d.stats.Idle++
	case spooler.Skipped:
		d.stats.Skipped++
	case spooler.Failed:
		d.stats.Failed++
	}
	if result.Err != nil && result.Outcome == spooler.Failed {
		d.lastErr = result.Err.Error()
	}
	if result.Job != "" && result.Outcome != spooler.Skipped {
		d.lastJob = iterationFromResult(result)
	}
}

func iterationFromResult(result spooler.Result) *api.Iteration {
	it := &api.Iteration{
		CorrelationID:  result.CorrelationID,
		Outcome:        string(result.Outcome),
		Job:            result.Job,
		WorkName:       result.WorkName,
		OutName:        result.OutName,
		StartedAt:      api.FormatTime(result.Start),
		FinishedAt:     api.FormatTime(result.End),
		ElapsedSeconds: result.Elapsed.Seconds(),
		ExitCode:       result.ExitCode,
	}
	if result.Err != nil {
		it.Error = result.Err.Error()
	}
	return it
}

// instrumentedExecutor records job metrics and the in-flight job around the
// real runner.
type instrumentedExecutor struct {
	next   spooler.Executor
	daemon *Daemon
}

func (e *instrumentedExecutor) Run(ctx context.Context, jobPath, logPath string) (runner.Result, error) {
	d := e.daemon
	d.setCurrent(jobPath)
	d.metrics.RecordJobStarted(ctx)
	result, err := e.next.Run(ctx, jobPath, logPath)
	d.metrics.RecordJobCompleted(ctx, err == nil && result.Success(), result.Duration.Seconds())
	d.setCurrent("")
	return result, err
}

func (d *Daemon) setCurrent(jobPath string) {
	d.mu.Lock()
	d.current = jobPath
	d.mu.Unlock()
}

var _ http.Handler = (*apiServer)(nil)

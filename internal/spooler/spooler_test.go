package spooler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"dropspool/internal/logging"
	"dropspool/internal/runner"
	"dropspool/internal/spool"
	"dropspool/internal/spooler"
)

type stepClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.times) == 1 {
		return c.times[0]
	}
	next := c.times[0]
	c.times = c.times[1:]
	return next
}

type recordingSleeper struct {
	slept []time.Duration
	after func()
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	if s.after != nil {
		s.after()
	}
	return ctx.Err()
}

type fixedRand struct {
	index  int
	floats []float64
}

func (r *fixedRand) IntN(n int) int {
	if r.index >= n {
		return n - 1
	}
	return r.index
}

func (r *fixedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	next := r.floats[0]
	r.floats = r.floats[1:]
	return next
}

type stubExecutor struct {
	calls []string
	run   func(jobPath, logPath string) (runner.Result, error)
}

func (e *stubExecutor) Run(_ context.Context, jobPath, logPath string) (runner.Result, error) {
	e.calls = append(e.calls, filepath.Base(jobPath))
	if e.run != nil {
		return e.run(jobPath, logPath)
	}
	return runner.Result{LogPath: logPath, Started: true}, nil
}

func newSpool(t *testing.T, jobs ...string) spool.Layout {
	t.Helper()
	layout := spool.NewLayout(t.TempDir())
	if err := layout.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	for _, name := range jobs {
		script := "#!/bin/sh\necho running " + name + "\n"
		if err := os.WriteFile(filepath.Join(layout.IncomingDir(), name), []byte(script), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return layout
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestStepProcessesJobEndToEnd(t *testing.T) {
	layout := newSpool(t, "job1")
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := &stepClock{times: []time.Time{start, start.Add(5 * time.Second)}}

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &logs})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	loop, err := spooler.New(
		spool.NewQueue(layout),
		runner.New(layout.ResultsDir(), runner.Options{}),
		spooler.Options{Machine: "hostA", ResultsDir: layout.ResultsDir(), Clock: clock, Sleeper: &recordingSleeper{}, Logger: logger},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result := loop.Step(context.Background())
	if result.Outcome != spooler.Processed {
		t.Fatalf("outcome = %s, err = %v", result.Outcome, result.Err)
	}
	if result.Job != "job1" || result.Elapsed != 5*time.Second || result.Candidates != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.CorrelationID == "" {
		t.Fatal("expected correlation id")
	}

	if got := listNames(t, layout.IncomingDir()); len(got) != 0 {
		t.Fatalf("incoming not empty: %v", got)
	}
	if got := listNames(t, layout.WorkDir()); len(got) != 0 {
		t.Fatalf("work not empty: %v", got)
	}
	out := listNames(t, layout.OutDir())
	if len(out) != 1 || out[0] != "20240101_100005_hostA_20240101_100000_hostA_job1" {
		t.Fatalf("unexpected out contents %v", out)
	}
	runLog, err := os.ReadFile(filepath.Join(layout.ResultsDir(), "20240101_100000_hostA_job1.log"))
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(runLog), "running job1") {
		t.Fatalf("unexpected run log %q", runLog)
	}

	text := logs.String()
	for _, want := range []string{"spooler: job1 · finalize: job finished", "elapsed=5s", "machine=hostA", "exit_code=0"} {
		if !strings.Contains(text, want) {
			t.Fatalf("log output missing %q:\n%s", want, text)
		}
	}
}

func TestStepIdleSleepsWithinBounds(t *testing.T) {
	layout := newSpool(t)
	sleeper := &recordingSleeper{}
	rnd := &fixedRand{floats: []float64{0, 0.5, 0.999999}}
	loop, err := spooler.New(spool.NewQueue(layout), &stubExecutor{}, spooler.Options{
		Machine: "hostA", ResultsDir: layout.ResultsDir(), Sleeper: sleeper, Rand: rnd,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 3; i++ {
		result := loop.Step(context.Background())
		if result.Outcome != spooler.Idle {
			t.Fatalf("outcome = %s", result.Outcome)
		}
	}
	if len(sleeper.slept) != 3 {
		t.Fatalf("expected 3 sleeps, got %v", sleeper.slept)
	}
	if sleeper.slept[0] != time.Second || sleeper.slept[1] != 3500*time.Millisecond {
		t.Fatalf("unexpected sleeps %v", sleeper.slept)
	}
	for _, d := range sleeper.slept {
		if d < time.Second || d >= 6*time.Second {
			t.Fatalf("sleep %s outside [1s, 6s)", d)
		}
	}
}

func TestIdleDurationDefaultBounds(t *testing.T) {
	layout := newSpool(t)
	loop, err := spooler.New(spool.NewQueue(layout), &stubExecutor{}, spooler.Options{
		Machine: "hostA", ResultsDir: layout.ResultsDir(), Rand: rand.New(rand.NewPCG(1, 2)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 1000; i++ {
		if d := loop.IdleDuration(); d < time.Second || d >= 6*time.Second {
			t.Fatalf("IdleDuration %s outside [1s, 6s)", d)
		}
	}
}

type raceQueue struct {
	jobs    []spool.Job
	claimed map[string]int
}

func (q *raceQueue) ListCandidates(context.Context) ([]spool.Job, error) { return q.jobs, nil }

func (q *raceQueue) Claim(job spool.Job, _ string) (spool.Job, error) {
	q.claimed[job.Base()]++
	return spool.Job{}, fmt.Errorf("%w: %s", spool.ErrRaceLost, job.Path)
}

func (q *raceQueue) Finish(spool.Job, string) (spool.Job, error) {
	return spool.Job{}, errors.New("unexpected finish")
}

func (q *raceQueue) Release(spool.Job) (spool.Job, error) {
	return spool.Job{}, errors.New("unexpected release")
}

func TestStepSelectsUniformlyAndSkipsLostRaces(t *testing.T) {
	queue := &raceQueue{claimed: map[string]int{}}
	for _, name := range []string{"a", "b", "c"} {
		queue.jobs = append(queue.jobs, spool.NewJob(filepath.Join("/spool/incoming", name), spool.Incoming))
	}
	exec := &stubExecutor{}
	sleeper := &recordingSleeper{}
	loop, err := spooler.New(queue, exec, spooler.Options{
		Machine: "hostA", ResultsDir: "/spool/results", Sleeper: sleeper, Rand: rand.New(rand.NewPCG(42, 7)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const iterations = 3000
	for i := 0; i < iterations; i++ {
		if result := loop.Step(context.Background()); result.Outcome != spooler.Skipped {
			t.Fatalf("outcome = %s, err = %v", result.Outcome, result.Err)
		}
	}
	if len(exec.calls) != 0 {
		t.Fatalf("executor should not run on lost races, got %v", exec.calls)
	}
	if len(sleeper.slept) != 0 {
		t.Fatalf("lost races should not sleep, got %v", sleeper.slept)
	}
	for name, count := range queue.claimed {
		if count < 800 || count > 1200 {
			t.Fatalf("job %s selected %d times of %d; distribution %v", name, count, iterations, queue.claimed)
		}
	}
	if len(queue.claimed) != 3 {
		t.Fatalf("expected all candidates selected, got %v", queue.claimed)
	}
}

func TestStepIsolatesLaunchFailure(t *testing.T) {
	layout := newSpool(t, "a-bad", "b-good")
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := &stepClock{times: []time.Time{start, start.Add(time.Second), start.Add(2 * time.Second), start.Add(3 * time.Second)}}
	exec := &stubExecutor{run: func(jobPath, logPath string) (runner.Result, error) {
		if strings.HasSuffix(jobPath, "a-bad") {
			return runner.Result{ExitCode: -1}, fmt.Errorf("%w: permission denied", runner.ErrLaunch)
		}
		return runner.Result{LogPath: logPath, Started: true}, nil
	}}
	loop, err := spooler.New(spool.NewQueue(layout), exec, spooler.Options{
		Machine: "hostA", ResultsDir: layout.ResultsDir(), Clock: clock, Sleeper: &recordingSleeper{}, Rand: &fixedRand{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first := loop.Step(context.Background())
	if first.Outcome != spooler.Failed || !errors.Is(first.Err, runner.ErrLaunch) {
		t.Fatalf("first = %s, %v", first.Outcome, first.Err)
	}
	second := loop.Step(context.Background())
	if second.Outcome != spooler.Processed || second.Job != "b-good" {
		t.Fatalf("second = %s %s, %v", second.Outcome, second.Job, second.Err)
	}

	out := listNames(t, layout.OutDir())
	if len(out) != 2 {
		t.Fatalf("expected both jobs in out, got %v", out)
	}
	if got := listNames(t, layout.WorkDir()); len(got) != 0 {
		t.Fatalf("work not empty: %v", got)
	}
}

func TestStepRecoversFromPanic(t *testing.T) {
	layout := newSpool(t, "a-panic", "b-good")
	calls := 0
	exec := &stubExecutor{run: func(jobPath, logPath string) (runner.Result, error) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return runner.Result{LogPath: logPath, Started: true}, nil
	}}
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &logs})
	if err != nil {
		t.Fatal(err)
	}
	loop, err := spooler.New(spool.NewQueue(layout), exec, spooler.Options{
		Machine: "hostA", ResultsDir: layout.ResultsDir(), Sleeper: &recordingSleeper{}, Rand: &fixedRand{}, Logger: logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first := loop.Step(context.Background())
	if first.Outcome != spooler.Failed || first.Err == nil || !strings.Contains(first.Err.Error(), "boom") {
		t.Fatalf("first = %s, %v", first.Outcome, first.Err)
	}
	if !strings.Contains(logs.String(), "job processing panicked") || !strings.Contains(logs.String(), "goroutine") {
		t.Fatalf("expected panic log with stack:\n%s", logs.String())
	}

	second := loop.Step(context.Background())
	if second.Outcome != spooler.Processed || second.Job != "b-good" {
		t.Fatalf("second = %s %s, %v", second.Outcome, second.Job, second.Err)
	}
}

type brokenQueue struct{ err error }

func (q brokenQueue) ListCandidates(context.Context) ([]spool.Job, error) { return nil, q.err }
func (q brokenQueue) Claim(spool.Job, string) (spool.Job, error) { return spool.Job{}, q.err }
func (q brokenQueue) Finish(spool.Job, string) (spool.Job, error) { return spool.Job{}, q.err }
func (q brokenQueue) Release(spool.Job) (spool.Job, error) { return spool.Job{}, q.err }

func TestStepListErrorFailsAndBacksOff(t *testing.T) {
	sleeper := &recordingSleeper{}
	loop, err := spooler.New(brokenQueue{err: spool.ErrLayout}, &stubExecutor{}, spooler.Options{
		Machine: "hostA", ResultsDir: "/tmp", Sleeper: sleeper, Rand: &fixedRand{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result := loop.Step(context.Background())
	if result.Outcome != spooler.Failed || !errors.Is(result.Err, spool.ErrLayout) {
		t.Fatalf("result = %s, %v", result.Outcome, result.Err)
	}
	if len(sleeper.slept) != 1 {
		t.Fatalf("expected one back-off sleep, got %v", sleeper.slept)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	layout := newSpool(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var observed []spooler.Outcome
	sleeper := &recordingSleeper{after: cancel}
	loop, err := spooler.New(spool.NewQueue(layout), &stubExecutor{}, spooler.Options{
		Machine: "hostA", ResultsDir: layout.ResultsDir(), Sleeper: sleeper,
		Observer: func(_ context.Context, r spooler.Result) { observed = append(observed, r.Outcome) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if len(observed) != 1 || observed[0] != spooler.Idle {
		t.Fatalf("observed = %v", observed)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	queue := spool.NewQueue(spool.NewLayout(t.TempDir()))
	cases := []spooler.Options{
		{ResultsDir: "/tmp"},
		{Machine: "hostA"},
		{Machine: "hostA", ResultsDir: "/tmp", IdleMin: 5 * time.Second, IdleMax: 2 * time.Second},
	}
	for _, opts := range cases {
		if _, err := spooler.New(queue, &stubExecutor{}, opts); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
}

// cancelOnClaimQueue ends the run context right after a successful claim, the
// way a shutdown signal landing between claim and launch would.
type cancelOnClaimQueue struct {
	*spool.Queue
	cancel context.CancelFunc
}

func (q cancelOnClaimQueue) Claim(job spool.Job, newName string) (spool.Job, error) {
	claimed, err := q.Queue.Claim(job, newName)
	q.cancel()
	return claimed, err
}

func TestStepReturnsUnstartedJobToIncomingOnShutdown(t *testing.T) {
	layout := newSpool(t, "job1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := cancelOnClaimQueue{Queue: spool.NewQueue(layout), cancel: cancel}
	loop, err := spooler.New(queue, runner.New(layout.ResultsDir(), runner.Options{}), spooler.Options{
		Machine: "hostA", ResultsDir: layout.ResultsDir(), Sleeper: &recordingSleeper{}, Rand: &fixedRand{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result := loop.Step(ctx)
	if result.Outcome != spooler.Failed || result.Ran || !errors.Is(result.Err, context.Canceled) {
		t.Fatalf("result = %s ran=%v err=%v", result.Outcome, result.Ran, result.Err)
	}
	if got := listNames(t, layout.IncomingDir()); len(got) != 1 || got[0] != "job1" {
		t.Fatalf("expected job1 back in incoming, got %v", got)
	}
	for _, dir := range []string{layout.WorkDir(), layout.OutDir(), layout.ResultsDir()} {
		if got := listNames(t, dir); len(got) != 0 {
			t.Fatalf("%s should be empty, got %v", dir, got)
		}
	}

	next, err := spooler.New(spool.NewQueue(layout), runner.New(layout.ResultsDir(), runner.Options{}), spooler.Options{
		Machine: "hostA", ResultsDir: layout.ResultsDir(), Sleeper: &recordingSleeper{}, Rand: &fixedRand{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if again := next.Step(context.Background()); again.Outcome != spooler.Processed || !again.Ran {
		t.Fatalf("released job not processed on next start: %s, %v", again.Outcome, again.Err)
	}
}

package testsupport

import (
	"path/filepath"
	"testing"

	"dropspool/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The spool layout and log directory are created and the idle sleep is kept
// short so loops settle quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SpoolRoot = filepath.Join(base, "spool")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Spool.MachineName = "testhost"
	cfgVal.Spool.IdleMinSeconds = 0.01
	cfgVal.Spool.IdleMaxSeconds = 0.02
	cfgVal.Spool.ShutdownGraceSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Layout().Ensure(); err != nil {
		t.Fatalf("ensure spool layout: %v", err)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure log dir: %v", err)
	}
	return builder.cfg
}

// WithMachine overrides the machine name on the test config.
func WithMachine(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Spool.MachineName = name
	}
}

// WithMetricsBind enables the status endpoint on the given address.
func WithMetricsBind(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Bind = addr
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SpoolRoot)
}

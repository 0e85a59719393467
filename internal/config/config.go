package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"dropspool/internal/spool"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SpoolRoot string `toml:"spool_root"`
	LogDir    string `toml:"log_dir"`
}

// Spool contains loop and instance settings.
type Spool struct {
	// MachineName is stamped into every generated name. Defaults to the host name.
	MachineName          string  `toml:"machine_name"`
	IdleMinSeconds       float64 `toml:"idle_min_seconds"`
	IdleMaxSeconds       float64 `toml:"idle_max_seconds"`
	SingleInstance       bool    `toml:"single_instance"`
	ShutdownGraceSeconds int     `toml:"shutdown_grace_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Metrics contains the status/metrics HTTP endpoint settings.
type Metrics struct {
	// Bind is the listen address; empty disables the endpoint.
	Bind string `toml:"bind"`
}

// Config encapsulates all configuration values for dropspool.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Spool   Spool   `toml:"spool"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SetSpoolRoot overrides the spool root, typically from a CLI argument.
func (c *Config) SetSpoolRoot(root string) error {
	expanded, err := expandPath(strings.TrimSpace(root))
	if err != nil {
		return fmt.Errorf("spool root: %w", err)
	}
	if expanded == "" {
		return errors.New("spool root must not be empty")
	}
	c.Paths.SpoolRoot = expanded
	return nil
}

// Layout returns the lifecycle directory layout under the spool root.
func (c *Config) Layout() spool.Layout {
	return spool.NewLayout(c.Paths.SpoolRoot)
}

// EnsureDirectories creates the log directory used for daemon operation.
// Lifecycle directories are not created here; a missing spool layout is a
// configuration error reported by preflight.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// IdleMin returns the lower bound of the idle sleep.
func (c *Config) IdleMin() time.Duration {
	return secondsToDuration(c.Spool.IdleMinSeconds)
}

// IdleMax returns the exclusive upper bound of the idle sleep.
func (c *Config) IdleMax() time.Duration {
	return secondsToDuration(c.Spool.IdleMaxSeconds)
}

// ShutdownGrace is how long a running job gets between SIGTERM and SIGKILL.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Spool.ShutdownGraceSeconds) * time.Second
}

// LockPath returns the per-machine instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "dropspool-"+c.Spool.MachineName+".lock")
}

// PIDPath returns the per-machine PID file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "dropspool-"+c.Spool.MachineName+".pid")
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left untouched unless overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSpool(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateMetrics()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SpoolRoot) == "" {
		return errors.New("paths.spool_root must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSpool() error {
	if c.Spool.MachineName == "" {
		return errors.New("spool.machine_name must be set")
	}
	if strings.ContainsAny(c.Spool.MachineName, "_/\\ \t") {
		return fmt.Errorf("spool.machine_name %q must not contain underscores, separators or whitespace", c.Spool.MachineName)
	}
	if c.Spool.IdleMinSeconds <= 0 {
		return errors.New("spool.idle_min_seconds must be positive")
	}
	if c.Spool.IdleMaxSeconds < c.Spool.IdleMinSeconds {
		return errors.New("spool.idle_max_seconds must not be below spool.idle_min_seconds")
	}
	if c.Spool.ShutdownGraceSeconds <= 0 {
		return errors.New("spool.shutdown_grace_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Bind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Bind); err != nil {
		return fmt.Errorf("metrics.bind %q: %w", c.Metrics.Bind, err)
	}
	return nil
}

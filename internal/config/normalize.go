package config

import (
	"fmt"
	"os"
	"strings"

	"dropspool/internal/naming"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSpool()
	c.normalizeLogging()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("DROPSPOOL_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.SpoolRoot = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.SpoolRoot) == "" {
		c.Paths.SpoolRoot = defaultSpoolRoot
	}
	var err error
	if c.Paths.SpoolRoot, err = expandPath(strings.TrimSpace(c.Paths.SpoolRoot)); err != nil {
		return fmt.Errorf("paths.spool_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSpool() {
	machine := strings.TrimSpace(c.Spool.MachineName)
	if machine == "" {
		if value, ok := os.LookupEnv("DROPSPOOL_MACHINE"); ok {
			machine = strings.TrimSpace(value)
		}
	}
	if machine == "" {
		if host, err := os.Hostname(); err == nil {
			machine = shortHostname(host)
		}
	}
	c.Spool.MachineName = naming.SanitizeMachine(machine)
	if c.Spool.ShutdownGraceSeconds <= 0 {
		c.Spool.ShutdownGraceSeconds = defaultShutdownGraceSeconds
	}
}

// shortHostname drops the domain part so names stay short and readable.
func shortHostname(host string) string {
	host = strings.TrimSpace(host)
	if idx := strings.IndexByte(host, '.'); idx > 0 {
		return host[:idx]
	}
	return host
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

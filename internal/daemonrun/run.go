// Package daemonrun wires configuration, logging and the daemon into a
// foreground process that runs until interrupted.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"dropspool/internal/config"
	"dropspool/internal/daemon"
	"dropspool/internal/logging"
)

const currentLogName = "dropspool.log"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the dropspool runtime and blocks until the context is cancelled
// or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.RunLogName(time.Now()))
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logStartup(logger, cfg, logPath)

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the spool layout with `dropspool init` and the instance lock"),
		)
		return err
	}

	// Shared files below belong to the instance holding the lock.
	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer removePIDFile(pidPath)

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		logger.Warn("unable to update current log pointer",
			logging.String(logging.FieldEventType, "log_pointer_failed"),
			logging.String("pointer", currentLogName),
			logging.Error(err),
		)
	}
	logging.PruneLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	<-signalCtx.Done()
	logger.Info("dropspool shutting down", logging.String(logging.FieldEventType, "shutdown"))
	return nil
}

func logStartup(logger *slog.Logger, cfg *config.Config, logPath string) {
	layout := cfg.Layout()
	logger.Info("runtime configuration",
		logging.String(logging.FieldEventType, "runtime_config"),
		logging.String(logging.FieldMachine, cfg.Spool.MachineName),
		logging.String("spool_root", layout.Root),
		logging.String("results_dir", layout.ResultsDir()),
		logging.Duration("idle_min", cfg.IdleMin()),
		logging.Duration("idle_max", cfg.IdleMax()),
		logging.Bool("single_instance", cfg.Spool.SingleInstance),
		logging.String("metrics_bind", cfg.Metrics.Bind),
		logging.String("log_path", logPath),
	)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, currentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// removePIDFile deletes the pid file only while it still names this process.
func removePIDFile(path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil || strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		return
	}
	_ = os.Remove(path)
}

package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	runLogPrefix = "dropspool-"
	runLogSuffix = ".log"
	runIDLayout  = "20060102T150405.000Z"
)

// RunLogName returns the daemon log file name for a run started at t.
func RunLogName(t time.Time) string {
	return runLogPrefix + t.UTC().Format(runIDLayout) + runLogSuffix
}

// runLogTime reports when the run owning a daemon log file started. Names
// without a parsable run ID fall back to the file's modification time.
func runLogTime(path string) (time.Time, bool) {
	name := filepath.Base(path)
	if id, ok := strings.CutPrefix(name, runLogPrefix); ok {
		if id, ok = strings.CutSuffix(id, runLogSuffix); ok {
			if started, err := time.Parse(runIDLayout, id); err == nil {
				return started, true
			}
		}
	}
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// PruneLogs removes daemon run logs in dir whose run started more than
// retentionDays ago and returns how many were removed. The log of the current
// run is kept. A retentionDays value of 0 disables pruning. Job run logs live
// in the spool results directory and are never touched.
func PruneLogs(logger *slog.Logger, dir string, retentionDays int, current string) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	paths, err := filepath.Glob(filepath.Join(dir, runLogPrefix+"*"+runLogSuffix))
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	if current != "" {
		current = filepath.Clean(current)
	}

	removed := 0
	for _, path := range paths {
		if path == current {
			continue
		}
		started, ok := runLogTime(path)
		if !ok || !started.Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}

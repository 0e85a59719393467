package preflight

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dropspool/internal/config"
	"dropspool/internal/spool"
)

// ErrFailed marks an aggregate preflight failure.
var ErrFailed = errors.New("preflight failed")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Layout marks checks of a spool lifecycle directory.
	Layout bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := CheckLayout(cfg.Layout())
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Metrics.Bind != "" {
		results = append(results, CheckListenAddress("Metrics endpoint", cfg.Metrics.Bind))
	}
	return results
}

// CheckLayout verifies every lifecycle directory under layout.
func CheckLayout(layout spool.Layout) []Result {
	results := make([]Result, 0, len(spool.Locations)+2)
	for _, loc := range spool.Locations {
		result := CheckDirectoryAccess(directoryLabel(loc), layout.Dir(loc))
		result.Layout = true
		results = append(results, result)
	}
	return results
}

// Err folds failed results into one error wrapping ErrFailed and, when any
// lifecycle directory failed, spool.ErrLayout. It returns nil when every check
// passed.
func Err(results []Result) error {
	var failed []string
	layout := false
	for _, r := range results {
		if r.Passed {
			continue
		}
		failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		if r.Layout {
			layout = true
		}
	}
	if len(failed) == 0 {
		return nil
	}
	detail := strings.Join(failed, "; ")
	if layout {
		return fmt.Errorf("%w: %w: %s", ErrFailed, spool.ErrLayout, detail)
	}
	return fmt.Errorf("%w: %s", ErrFailed, detail)
}

func directoryLabel(loc spool.Location) string {
	return cases.Title(language.Und).String(string(loc)) + " directory"
}

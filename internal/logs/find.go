package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dropspool/internal/naming"
)

// ErrNotFound reports that no run log matches a job.
var ErrNotFound = errors.New("run log not found")

const logSuffix = ".log"

// Find returns the run logs in resultsDir belonging to job, newest claim
// first. job may be an original basename, a work name or an out name.
func Find(resultsDir, job string) ([]string, error) {
	job = strings.TrimSpace(filepath.Base(job))
	if job == "" || job == "." {
		return nil, fmt.Errorf("%w: empty job name", ErrNotFound)
	}

	if path, ok := existingLog(resultsDir, job); ok {
		return []string{path}, nil
	}
	if parsed, err := naming.Parse(job); err == nil {
		if inner, ok := parsed.Inner(); ok {
			if path, ok := existingLog(resultsDir, inner.String()); ok {
				return []string{path}, nil
			}
		}
	}

	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		return nil, fmt.Errorf("read results directory: %w", err)
	}
	type match struct {
		path string
		name naming.Name
	}
	var matches []match
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), logSuffix) {
			continue
		}
		parsed, err := naming.Parse(strings.TrimSuffix(entry.Name(), logSuffix))
		if err != nil || parsed.Base != job {
			continue
		}
		matches = append(matches, match{path: filepath.Join(resultsDir, entry.Name()), name: parsed})
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, job)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].name.Stamp.After(matches[j].name.Stamp)
	})
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.path
	}
	return paths, nil
}

func existingLog(resultsDir, workName string) (string, bool) {
	path := filepath.Join(resultsDir, workName+logSuffix)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

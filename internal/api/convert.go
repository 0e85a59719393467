package api

import (
	"os"
	"path/filepath"
	"time"

	"dropspool/internal/preflight"
	"dropspool/internal/spool"
)

// FromJob converts a spool job to its API representation. resultsDir locates
// the run log for claimed and finished jobs.
func FromJob(job spool.Job, resultsDir string) JobEntry {
	entry := JobEntry{
		Location: string(job.Location),
		FileName: job.FileName(),
		Job:      job.Base(),
	}
	claimed, hasClaim := job.Claimed()
	if hasClaim {
		entry.Machine = claimed.Machine
		entry.ClaimedAt = FormatTime(claimed.Stamp)
		if resultsDir != "" {
			entry.LogPath = filepath.Join(resultsDir, claimed.String()+".log")
			if info, err := os.Stat(entry.LogPath); err == nil && info.Mode().IsRegular() {
				entry.HasLog = true
			}
		}
	}
	if finished, ok := job.Finished(); ok {
		entry.FinishedAt = FormatTime(finished.Stamp)
		if hasClaim {
			entry.ElapsedSeconds = finished.Stamp.Sub(claimed.Stamp).Seconds()
		}
	}
	return entry
}

// FromPreflight converts preflight results.
func FromPreflight(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FormatTime renders t for API payloads; the zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFormat)
}

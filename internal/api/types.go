package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobEntry describes one job artifact in a transport-friendly format.
type JobEntry struct {
	Location       string  `json:"location" yaml:"location"`
	FileName       string  `json:"fileName" yaml:"fileName"`
	Job            string  `json:"job" yaml:"job"`
	Machine        string  `json:"machine,omitempty" yaml:"machine,omitempty"`
	ClaimedAt      string  `json:"claimedAt,omitempty" yaml:"claimedAt,omitempty"`
	FinishedAt     string  `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
	ElapsedSeconds float64 `json:"elapsedSeconds,omitempty" yaml:"elapsedSeconds,omitempty"`
	LogPath        string  `json:"logPath,omitempty" yaml:"logPath,omitempty"`
	HasLog         bool    `json:"hasLog" yaml:"hasLog"`
}

// SpoolListing is a snapshot of every lifecycle directory.
type SpoolListing struct {
	Root   string         `json:"root" yaml:"root"`
	Counts map[string]int `json:"counts" yaml:"counts"`
	Jobs   []JobEntry     `json:"jobs" yaml:"jobs"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Iteration summarizes one spool loop iteration that selected a job.
type Iteration struct {
	CorrelationID  string  `json:"correlationId" yaml:"correlationId"`
	Outcome        string  `json:"outcome" yaml:"outcome"`
	Job            string  `json:"job" yaml:"job"`
	WorkName       string  `json:"workName,omitempty" yaml:"workName,omitempty"`
	OutName        string  `json:"outName,omitempty" yaml:"outName,omitempty"`
	StartedAt      string  `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	FinishedAt     string  `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
	ElapsedSeconds float64 `json:"elapsedSeconds" yaml:"elapsedSeconds"`
	ExitCode       int     `json:"exitCode" yaml:"exitCode"`
	Error          string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// LoopStats counts iteration outcomes since the daemon started.
type LoopStats struct {
	Iterations int64 `json:"iterations" yaml:"iterations"`
	Processed  int64 `json:"processed" yaml:"processed"`
	Idle       int64 `json:"idle" yaml:"idle"`
	Skipped    int64 `json:"skipped" yaml:"skipped"`
	Failed     int64 `json:"failed" yaml:"failed"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool          `json:"running" yaml:"running"`
	PID          int           `json:"pid" yaml:"pid"`
	Machine      string        `json:"machine" yaml:"machine"`
	SpoolRoot    string        `json:"spoolRoot" yaml:"spoolRoot"`
	LockFilePath string        `json:"lockFilePath,omitempty" yaml:"lockFilePath,omitempty"`
	StartedAt    string        `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	CurrentJob   string        `json:"currentJob,omitempty" yaml:"currentJob,omitempty"`
	LastPollAt   string        `json:"lastPollAt,omitempty" yaml:"lastPollAt,omitempty"`
	Candidates   int           `json:"candidates" yaml:"candidates"`
	Stats        LoopStats     `json:"stats" yaml:"stats"`
	LastJob      *Iteration    `json:"lastJob,omitempty" yaml:"lastJob,omitempty"`
	LastError    string        `json:"lastError,omitempty" yaml:"lastError,omitempty"`
	Preflight    []CheckResult `json:"preflight" yaml:"preflight"`
}

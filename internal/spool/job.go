package spool

import (
	"path/filepath"

	"dropspool/internal/naming"
)

// Job is a job artifact at a specific lifecycle location.
type Job struct {
	Path     string
	Location Location
	// Name holds the parsed stage metadata; Stamped is false for names that
	// were not generated by the spooler (fresh incoming jobs).
	Name    naming.Name
	Stamped bool
}

// NewJob builds a Job for path, parsing its file name when it is a stage name.
// Incoming jobs are never parsed since their names belong to the producer.
func NewJob(path string, loc Location) Job {
	job := Job{Path: path, Location: loc}
	if loc == Incoming {
		return job
	}
	if parsed, err := naming.Parse(filepath.Base(path)); err == nil {
		job.Name = parsed
		job.Stamped = true
	}
	return job
}

// FileName is the job's current file name.
func (j Job) FileName() string {
	return filepath.Base(j.Path)
}

// Base is the job's original basename as dropped into incoming. Work names
// wrap it once and out names twice; a producer name that itself looks like a
// stage name is kept intact.
func (j Job) Base() string {
	if !j.Stamped {
		return j.FileName()
	}
	if j.Location == Out {
		return j.Name.Unwrap(2)
	}
	return j.Name.Unwrap(1)
}

// Claimed returns the claim stage metadata: the work name itself, or the
// wrapped work name for out-stage jobs.
func (j Job) Claimed() (naming.Name, bool) {
	if !j.Stamped {
		return naming.Name{}, false
	}
	switch j.Location {
	case Work:
		return j.Name, true
	case Out:
		return j.Name.Inner()
	}
	return naming.Name{}, false
}

// Finished returns the completion stage metadata for out-stage jobs.
func (j Job) Finished() (naming.Name, bool) {
	if !j.Stamped || j.Location != Out {
		return naming.Name{}, false
	}
	return j.Name, true
}

package spool

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dropspool/internal/fileutil"
)

// Queue lists and relocates jobs within a Layout.
type Queue struct {
	layout Layout
}

// NewQueue returns a queue bound to layout.
func NewQueue(layout Layout) *Queue {
	return &Queue{layout: layout}
}

// Layout returns the queue's directory layout.
func (q *Queue) Layout() Layout {
	return q.layout
}

// ListCandidates returns the jobs waiting in incoming.
func (q *Queue) ListCandidates(ctx context.Context) ([]Job, error) {
	return q.List(ctx, Incoming)
}

// List returns the immediate, non-recursive entries of a lifecycle directory
// sorted by name. Subdirectories and dot-files are skipped; partial uploads and
// sync client metadata conventionally start with a dot.
func (q *Queue) List(ctx context.Context, loc Location) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := q.layout.Dir(loc)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, wrap(ErrLayout, "list", dir, err)
		}
		return nil, wrap(err, "list", dir, nil)
	}
	jobs := make([]Job, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.IsDir() {
			continue
		}
		jobs = append(jobs, NewJob(filepath.Join(dir, name), loc))
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	return jobs, nil
}

// Claim moves an incoming job into work under newName. Exactly one of several
// concurrent claimers of the same job succeeds; the rest get ErrRaceLost.
func (q *Queue) Claim(job Job, newName string) (Job, error) {
	return q.move(job, Work, newName)
}

// Finish moves a claimed job from work into out under newName.
func (q *Queue) Finish(job Job, newName string) (Job, error) {
	return q.move(job, Out, newName)
}

// Release returns a claimed job that never ran from work to incoming under
// its original basename, so it is picked up again.
func (q *Queue) Release(job Job) (Job, error) {
	return q.move(job, Incoming, job.Base())
}

func (q *Queue) move(job Job, to Location, newName string) (Job, error) {
	if newName == "" || newName != filepath.Base(newName) || strings.HasPrefix(newName, ".") {
		return Job{}, wrap(ErrLayout, "move", "invalid destination name "+newName, nil)
	}
	dstDir := q.layout.Dir(to)
	dst := filepath.Join(dstDir, newName)
	if err := fileutil.RenameNoReplace(job.Path, dst); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return Job{}, wrap(ErrNameCollision, "move", dst, err)
		case errors.Is(err, fs.ErrNotExist):
			if _, statErr := os.Stat(dstDir); statErr != nil {
				return Job{}, wrap(ErrLayout, "move", string(to)+" directory "+dstDir, statErr)
			}
			return Job{}, wrap(ErrRaceLost, "move", job.Path, err)
		default:
			return Job{}, err
		}
	}
	return NewJob(dst, to), nil
}

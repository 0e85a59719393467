package api

import (
	"context"

	"dropspool/internal/spool"
)

var listedLocations = []spool.Location{spool.Incoming, spool.Work, spool.Out}

// ListSpool snapshots incoming, work and out under layout.
func ListSpool(ctx context.Context, layout spool.Layout) (SpoolListing, error) {
	queue := spool.NewQueue(layout)
	listing := SpoolListing{
		Root:   layout.Root,
		Counts: make(map[string]int, len(listedLocations)),
		Jobs:   []JobEntry{},
	}
	for _, loc := range listedLocations {
		jobs, err := queue.List(ctx, loc)
		if err != nil {
			return SpoolListing{}, err
		}
		listing.Counts[string(loc)] = len(jobs)
		for _, job := range jobs {
			listing.Jobs = append(listing.Jobs, FromJob(job, layout.ResultsDir()))
		}
	}
	return listing, nil
}

// FilterJobs returns the entries at the given location.
func FilterJobs(jobs []JobEntry, loc spool.Location) []JobEntry {
	var out []JobEntry
	for _, job := range jobs {
		if job.Location == string(loc) {
			out = append(out, job)
		}
	}
	return out
}

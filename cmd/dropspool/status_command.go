package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dropspool/internal/api"
	"dropspool/internal/config"
	"dropspool/internal/preflight"
	"dropspool/internal/spool"
)

// statusReport is the payload behind `dropspool status`.
type statusReport struct {
	Root    string            `json:"root" yaml:"root"`
	Machine string            `json:"machine" yaml:"machine"`
	Checks  []api.CheckResult `json:"checks" yaml:"checks"`
	Counts  map[string]int    `json:"counts,omitempty" yaml:"counts,omitempty"`
	Jobs    []api.JobEntry    `json:"jobs" yaml:"jobs"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status [spool-root]",
		Short: "Show jobs in incoming, work and out",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			cfg, err := ctx.configWithRoot(args)
			if err != nil {
				return err
			}
			report, layoutErr := buildStatusReport(cmd, cfg)
			var writeErr error
			switch format {
			case outputJSON:
				writeErr = writeJSON(cmd, report)
			case outputYAML:
				writeErr = writeYAML(cmd, report)
			default:
				fmt.Fprint(cmd.OutOrStdout(), renderStatusReport(report, newPainter(cmd.OutOrStdout())))
			}
			if writeErr != nil {
				return writeErr
			}
			return layoutErr
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "Output format: table, json or yaml")
	return cmd
}

// buildStatusReport checks the layout and, when usable, lists every job. A
// layout failure is returned alongside the partial report.
func buildStatusReport(cmd *cobra.Command, cfg *config.Config) (statusReport, error) {
	layout := cfg.Layout()
	checks := preflight.CheckLayout(layout)
	report := statusReport{
		Root:    layout.Root,
		Machine: cfg.Spool.MachineName,
		Checks:  api.FromPreflight(checks),
		Jobs:    []api.JobEntry{},
	}
	if err := preflight.Err(checks); err != nil {
		return report, err
	}
	listing, err := api.ListSpool(cmd.Context(), layout)
	if err != nil {
		return report, fmt.Errorf("list spool: %w", err)
	}
	report.Counts = listing.Counts
	report.Jobs = listing.Jobs
	return report, nil
}

func renderStatusReport(report statusReport, p painter) string {
	lines := []string{
		p.section("spool"),
		p.field("Root", report.Root),
		p.field("Machine", report.Machine),
	}
	for _, check := range report.Checks {
		lines = append(lines, p.check(check))
	}
	if report.Counts != nil {
		for _, loc := range []spool.Location{spool.Incoming, spool.Work, spool.Out} {
			jobs := api.FilterJobs(report.Jobs, loc)
			lines = append(lines, "", p.section(fmt.Sprintf("%s (%d)", loc, len(jobs))))
			if len(jobs) == 0 {
				lines = append(lines, fieldIndent+"(empty)")
				continue
			}
			lines = append(lines, strings.TrimRight(renderJobTable(loc, jobs), "\n"))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderJobTable(loc spool.Location, jobs []api.JobEntry) string {
	if loc == spool.Incoming {
		rows := make([][]string, 0, len(jobs))
		for _, job := range jobs {
			rows = append(rows, []string{job.Job})
		}
		return renderTable([]tableColumn{{header: "Job"}}, rows)
	}

	columns := []tableColumn{
		{header: "Job"},
		{header: "Machine"},
		{header: "Claimed"},
	}
	if loc == spool.Out {
		columns = append(columns,
			tableColumn{header: "Finished"},
			tableColumn{header: "Elapsed", align: alignRight},
		)
	}
	columns = append(columns, tableColumn{header: "Log"})

	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		row := []string{job.Job, job.Machine, displayTime(job.ClaimedAt)}
		if loc == spool.Out {
			row = append(row, displayTime(job.FinishedAt), formatElapsed(job))
		}
		row = append(row, yesNo(job.HasLog))
		rows = append(rows, row)
	}
	return renderTable(columns, rows)
}

func displayTime(value string) string {
	if value == "" {
		return "-"
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return parsed.Format(time.DateTime)
}

func formatElapsed(job api.JobEntry) string {
	if job.FinishedAt == "" || job.ClaimedAt == "" {
		return "-"
	}
	return time.Duration(job.ElapsedSeconds * float64(time.Second)).Round(time.Second).String()
}

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dropspool/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var all bool

	cmd := &cobra.Command{
		Use:   "logs <job>",
		Short: "Show a job's run log",
		Long: `Show the run log captured for a job. <job> may be the original file name, the
work name or the out name. When a job ran more than once the newest log is shown
unless --all is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			paths, err := logs.Find(cfg.Layout().ResultsDir(), args[0])
			if err != nil {
				return err
			}
			if !all {
				paths = paths[:1]
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			for i, path := range paths {
				if len(paths) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "==> %s <==\n", path)
				}
				opts := logs.TailOptions{Lines: lines, Follow: follow && i == 0 && len(paths) == 1}
				if err := logs.Tail(runCtx, path, out, opts); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "Show only the last N lines (0 shows everything)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as a running job writes them")
	cmd.Flags().BoolVar(&all, "all", false, "Show every run log for the job, newest first")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	"dropspool/internal/daemonrun"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var development bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "dropspool [spool-root]",
		Short: "File-system job spooler",
		Long: `dropspool watches <spool-root>/incoming for executable jobs, claims one at a
time into work/, runs it from results/ with output captured to a log, and moves
it to out/ once finished.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configWithRoot(args)
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

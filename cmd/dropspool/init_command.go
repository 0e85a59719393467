package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dropspool/internal/spool"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init [spool-root]",
		Short: "Create the spool directory layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configWithRoot(args)
			if err != nil {
				return err
			}
			layout := cfg.Layout()
			if err := layout.Ensure(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Spool layout ready at %s\n", layout.Root)
			for _, loc := range spool.Locations {
				fmt.Fprintf(out, "  %-9s %s\n", string(loc)+":", layout.Dir(loc))
			}
			return nil
		},
	}
}

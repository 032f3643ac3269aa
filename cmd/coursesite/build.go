package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func buildCmd(a *app) *cobra.Command {
	var skipFailed bool
	var workers int

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the static site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("skip-failed") {
				a.cfg.SkipFailed = skipFailed
			}
			if workers > 0 {
				a.cfg.Workers = workers
			}

			b, err := a.builder(a.converter())
			if err != nil {
				return err
			}
			report, err := b.Build(cmd.Context())
			if err != nil {
				return err
			}

			for _, s := range report.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", s.Route, s.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pages written to %s\n", len(report.Routes), a.cfg.OutputDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipFailed, "skip-failed", false, "omit failing routes instead of aborting")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "parallel route builds (default from config)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one refresh pass over all feeds and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.refresh.RefreshAll(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range report.Feeds {
			if r.OK() {
				fmt.Fprintf(out, "ok      %s  new=%d positive=%d  %s\n", r.Feed, r.Inserted, r.Positive, r.Path)
				continue
			}
			fmt.Fprintf(out, "failed  %s  stage=%s  %v\n", r.Feed, r.Stage, r.Err)
		}

		if failed := len(report.Failed()); failed > 0 {
			return fmt.Errorf("%d of %d feeds failed", failed, len(report.Feeds))
		}
		return nil
	},
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newTrackCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Build the feed configuration summary and send it to the tracker sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			info, err := app.Detector.TrackerInfo(cmd.Context())
			if err != nil {
				return fmt.Errorf("unable to detect valid feed configuration: %w", err)
			}

			if !dryRun {
				app.Tracker.TrackFeedConfig(cmd.Context(), info)
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(info)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the summary without sending it")
	return cmd
}

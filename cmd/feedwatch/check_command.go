package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var feedID string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check once whether a valid feed configuration exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if feedID != "" {
				result, err := app.Detector.ValidateFeed(cmd.Context(), feedID)
				if err != nil {
					return fmt.Errorf("feed validation failed: %w", err)
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}

			valid, err := app.Detector.HasValidFeedConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("feed configuration check failed: %w", err)
			}

			if valid {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&feedID, "feed", "", "Validate a single feed id and print each criterion")
	return cmd
}

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"feedwatch/internal/server"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin server and the scheduled feed configuration checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			srv, err := server.New(app)
			if err != nil {
				app.Close()
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(cmd.Context())
			}()

			select {
			case err := <-errCh:
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
					app.Logger.Error("Shutdown failed", "error", shutdownErr)
				}
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				return <-errCh
			}
		},
	}
}

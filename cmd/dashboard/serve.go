package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axelarscope/dashboard/app/dashboard"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app := dashboard.Initialize(ctx)

			serverErr := dashboard.NewServer(app)
			if serverErr != nil {
				app.Logger.Fatal("Unable to initialize server", zap.Error(serverErr))
			}

			app.Start(ctx)
			return nil
		},
	}
}

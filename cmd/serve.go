package main

import (
	"context"
	"fmt"

	"clinic-orchestrator/cmd/bootstrap"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the no-show sweeper and the event workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Initialize application with all dependencies
			app, err := bootstrap.New(context.Background())
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			// Run the application
			app.Run()
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-no-shows",
		Short: "Mark overdue pending and confirmed appointments as no-show once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.New(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Close()

			count, err := app.SweepNoShows(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Marked %d appointment(s) as no-show.\n", count)
			return nil
		},
	}
}

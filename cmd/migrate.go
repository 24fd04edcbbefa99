package main

import (
	"fmt"

	"clinic-orchestrator/cmd/bootstrap"
	"clinic-orchestrator/internal/infrastructure/database"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			if err := database.MigrateUp(cfg.DB); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Migrations applied successfully.")
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")

			cfg, _, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			if err := database.MigrateDown(cfg.DB, steps); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Printf("Rolled back %d migration(s).\n", steps)
			return nil
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(downCmd)

	return cmd
}

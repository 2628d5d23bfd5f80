package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/secinv/ghsync/internal/infra/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap()
		if err != nil {
			return err
		}
		defer deps.db.Close()

		runner := postgres.NewRunner(deps.db)
		if err := runner.Up(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap()
		if err != nil {
			return err
		}
		defer deps.db.Close()

		runner := postgres.NewRunner(deps.db)
		if err := runner.Down(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Migration rolled back")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap()
		if err != nil {
			return err
		}
		defer deps.db.Close()

		runner := postgres.NewRunner(deps.db)
		if err := runner.EnsureMigrationTable(cmd.Context()); err != nil {
			return err
		}

		applied, err := runner.GetAppliedMigrations(cmd.Context())
		if err != nil {
			return err
		}
		for _, rec := range applied {
			fmt.Printf("applied  %s at %s\n", rec.Version, rec.AppliedAt.Format("2006-01-02 15:04:05"))
		}

		pending, err := runner.GetPendingMigrations(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range pending {
			fmt.Printf("pending  %s_%s\n", m.Version, m.Name)
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/hla-annotator/internal/infrastructure/database/postgres"
)

// NewMigrateCmd creates the annotation-store schema maintenance command.
// Normal runs migrate automatically on startup; these subcommands exist for
// inspecting and unwinding the schema by hand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect or roll back the annotation store schema",
	}
	cmd.AddCommand(newMigrateStatusCmd(), newMigrateRollbackCmd())
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			store := cliCtx.Config.Store
			if !store.Enabled {
				return fmt.Errorf("annotation store is not enabled in configuration")
			}

			version, dirty, err := postgres.MigrationStatus(postgres.BuildDSN(store), store.MigrationsPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if version == 0 && !dirty {
				fmt.Fprintln(out, "no migrations applied")
				return nil
			}
			fmt.Fprintf(out, "schema version: %d\n", version)
			if dirty {
				fmt.Fprintln(out, "state: dirty (a migration failed mid-way; resolve before running)")
			} else {
				fmt.Fprintln(out, "state: clean")
			}
			return nil
		},
	}
}

func newMigrateRollbackCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll the schema back by N migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			store := cliCtx.Config.Store
			if !store.Enabled {
				return fmt.Errorf("annotation store is not enabled in configuration")
			}

			if err := postgres.RollbackMigration(postgres.BuildDSN(store), store.MigrationsPath, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

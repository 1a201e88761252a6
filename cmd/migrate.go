package cmd

import (
	"fmt"
	"strconv"

	"linkkeeper/config"
	"linkkeeper/database"

	"github.com/spf13/cobra"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the settings database schema",
	Long: `Apply or roll back migrations of the postgres settings backend.

The database is taken from DATABASE_URL and DATABASE_NAME unless
--database-url is given.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, err := migrationDatabaseURL()
		if err != nil {
			return err
		}
		return database.MigrateUp(databaseURL)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[0], err)
			}
			steps = n
		}
		databaseURL, err := migrationDatabaseURL()
		if err != nil {
			return err
		}
		return database.MigrateDown(databaseURL, steps)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, err := migrationDatabaseURL()
		if err != nil {
			return err
		}

		status, err := database.GetMigrationStatus(databaseURL)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !status.Applied {
			fmt.Fprintln(out, "No migrations applied")
			return nil
		}
		fmt.Fprintf(out, "Version: %d\n", status.Version)
		fmt.Fprintf(out, "Dirty:   %t\n", status.Dirty)
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDatabaseURL, "database-url", "", "postgres URL, overrides DATABASE_URL")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func migrationDatabaseURL() (string, error) {
	if migrateDatabaseURL != "" {
		return migrateDatabaseURL, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.GetDatabaseURL(), nil
}

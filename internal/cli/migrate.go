package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/llmtxt/internal/db"
)

// MigrateCmd returns the migrate command
func MigrateCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the history database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(opts, func(database *sql.DB) error {
				if err := db.Migrate(database); err != nil {
					return err
				}
				return printVersion(cmd, database)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(opts, func(database *sql.DB) error {
				if err := db.Rollback(database); err != nil {
					return err
				}
				return printVersion(cmd, database)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(opts, func(database *sql.DB) error {
				return printVersion(cmd, database)
			})
		},
	})

	return cmd
}

// withDatabase opens the configured database without migrating it.
func withDatabase(opts *globalOptions, fn func(*sql.DB) error) error {
	database, err := db.Connect(opts.cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database)
}

func printVersion(cmd *cobra.Command, database *sql.DB) error {
	v, dirty, err := db.Version(database)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (dirty)\n", v)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema version %d\n", v)
	return nil
}

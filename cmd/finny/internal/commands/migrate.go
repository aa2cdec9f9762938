package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/finny/internal/database"
)

func newMigrateCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := database.New(cmd.Context(), e.cfg.ConnectionString())
				if err != nil {
					return err
				}
				defer db.Close()

				from, to, err := database.Migrate(db)
				if err != nil {
					return err
				}

				if from == to {
					fmt.Fprintf(cmd.OutOrStdout(), "schema up to date at version %d\n", to)
					return nil
				}

				fmt.Fprintf(cmd.OutOrStdout(), "migrated from version %d to %d\n", from, to)

				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := database.New(cmd.Context(), e.cfg.ConnectionString())
				if err != nil {
					return err
				}
				defer db.Close()

				if err := database.Rollback(db); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")

				return nil
			},
		},
	)

	return cmd
}

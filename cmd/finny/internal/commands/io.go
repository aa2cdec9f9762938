package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/calendar"
	"github.com/MrJamesThe3rd/finny/internal/export"
)

func newImportCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create bills from a spreadsheet export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			a, err := e.App(cmd.Context())
			if err != nil {
				return err
			}

			res, err := a.Importer.Import(cmd.Context(), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if err := printBills(out, res.Created); err != nil {
				return err
			}

			for _, rowErr := range res.Failed {
				fmt.Fprintln(cmd.ErrOrStderr(), rowErr.Error())
			}

			fmt.Fprintf(out, "imported %d row(s), %d failed\n", len(res.Created), len(res.Failed))

			if len(res.Created) == 0 && len(res.Failed) > 0 {
				return fmt.Errorf("no rows imported")
			}

			return nil
		},
	}
}

func newExportCommand(e *env) *cobra.Command {
	var (
		from, to, status string
		statement        bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write bills as CSV, or as a plain text statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter export.Filter

			if status != "" {
				s := bill.Status(status)
				if s != bill.StatusPending && s != bill.StatusPaid {
					return fmt.Errorf("unknown status %q", status)
				}

				filter.Status = &s
			}

			var err error

			if from != "" {
				if filter.From, err = calendar.Parse(from); err != nil {
					return err
				}
			}

			if to != "" {
				if filter.To, err = calendar.Parse(to); err != nil {
					return err
				}
			}

			a, err := e.App(cmd.Context())
			if err != nil {
				return err
			}

			items, err := a.Export.Items(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if statement {
				_, err = fmt.Fprint(cmd.OutOrStdout(), a.Export.Statement(items))
				return err
			}

			return a.Export.WriteCSV(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first due date included (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last due date included (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "only pending or paid bills")
	cmd.Flags().BoolVar(&statement, "statement", false, "print a statement instead of CSV")

	return cmd
}

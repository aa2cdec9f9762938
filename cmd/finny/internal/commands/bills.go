package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/finny/internal/app"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/calendar"
)

func newBillsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "Create, pay and remove bills",
	}

	cmd.AddCommand(
		newBillsCreateCommand(e),
		newBillsScheduleCommand(e),
		newBillsPayCommand(e),
		newBillsDeleteCommand(e),
		newBillsImpactCommand(e),
		newBillsSummaryCommand(e),
	)

	return cmd
}

// draftFlags are the flags describing a bill series.
type draftFlags struct {
	description  string
	amount       string
	due          string
	category     string
	installments int
	recurrence   string
	until        string
	paid         bool
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "bill description")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount of each occurrence, e.g. 59.90")
	cmd.Flags().StringVar(&f.due, "due", "", "first due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.installments, "installments", 0, "split into this many monthly installments")
	cmd.Flags().StringVar(&f.recurrence, "recurrence", "", "repeat weekly, monthly or yearly")
	cmd.Flags().StringVar(&f.until, "until", "", "last due date of a recurrence (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("installments", "recurrence")
	_ = cmd.MarkFlagRequired("due")
}

func (f *draftFlags) draft() (bill.Draft, error) {
	d := bill.Draft{Description: f.description, Kind: bill.Plain{}, Paid: f.paid}

	due, err := calendar.Parse(f.due)
	if err != nil {
		return d, err
	}

	d.DueDate = due

	if f.amount != "" {
		amount, err := decimal.NewFromString(f.amount)
		if err != nil {
			return d, fmt.Errorf("parsing amount: %w", err)
		}

		d.Amount = amount
	}

	switch {
	case f.installments > 0:
		d.Kind = bill.Installment{Total: f.installments}
	case f.recurrence != "":
		rec := bill.Recurring{Type: bill.RecurrenceType(strings.ToLower(f.recurrence))}

		if f.until != "" {
			end, err := calendar.Parse(f.until)
			if err != nil {
				return d, err
			}

			rec.EndDate = &end
		}

		d.Kind = rec
	}

	return d, nil
}

func newBillsCreateCommand(e *env) *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bill, an installment plan or a recurring series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := f.draft()
			if err != nil {
				return err
			}

			a, err := e.App(cmd.Context())
			if err != nil {
				return err
			}

			d.CategoryID, err = resolveCategory(cmd.Context(), a, f.category)
			if err != nil {
				return err
			}

			res, err := a.Bills.Create(cmd.Context(), d)
			if err != nil {
				return err
			}

			return printBills(cmd.OutOrStdout(), res.Bills)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.category, "category", "", "category name or id")
	cmd.Flags().BoolVar(&f.paid, "paid", false, "create the first occurrence already paid")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newBillsScheduleCommand(e *env) *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the due dates a series would expand to without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := f.draft()
			if err != nil {
				return err
			}

			for i, due := range bill.Schedule(d, e.cfg.BillPolicy()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i+1, due)
			}

			return nil
		},
	}

	f.register(cmd)

	return cmd
}

func newBillsPayCommand(e *env) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "pay <bill-id>",
		Short: "Pay a pending bill from an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			billID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing bill id: %w", err)
			}

			accID, err := uuid.Parse(accountID)
			if err != nil {
				return fmt.Errorf("parsing account id: %w", err)
			}

			a, err := e.App(cmd.Context())
			if err != nil {
				return err
			}

			res, err := a.Bills.Pay(cmd.Context(), billID, accID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "paid %s %s, balance %s\n", res.Bill.Description, res.Bill.Amount.StringFixed(2), res.Balance.StringFixed(2))

			if res.Next != nil {
				fmt.Fprintf(out, "next occurrence %s due %s\n", res.Next.ID, res.Next.DueDate)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account id to debit")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func newBillsDeleteCommand(e *env) *cobra.Command {
	var future bool

	cmd := &cobra.Command{
		Use:   "delete <bill-id>",
		Short: "Delete a bill; an installment root takes its plan with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing bill id: %w", err)
			}

			a, err := e.App(cmd.Context())
			if err != nil {
				return err
			}

			var res *bill.DeleteResult
			if future {
				res, err = a.Bills.DeleteFutureRecurrences(cmd.Context(), id)
			} else {
				res, err = a.Bills.Delete(cmd.Context(), id)
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d bill(s)\n", len(res.Deleted))

			return nil
		},
	}

	cmd.Flags().BoolVar(&future, "future", false, "also delete later pending occurrences of a recurring series")

	return cmd
}

func newBillsImpactCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "impact <bill-id>",
		Short: "Show what deleting a bill would remove",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing bill id: %w", err)
			}

			a, err := e.App(cmd.Context())
			if err != nil {
				return err
			}

			imp, err := a.Bills.Impact(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bill:               %s (%s)\n", imp.Bill.Description, imp.Bill.DueDate)
			fmt.Fprintf(out, "child installments: %d\n", imp.ChildInstallments)
			fmt.Fprintf(out, "later recurrences:  %d\n", imp.LaterRecurrences)
			fmt.Fprintf(out, "has payment:        %t\n", imp.HasPayment)

			return nil
		},
	}
}

func newBillsSummaryCommand(e *env) *cobra.Command {
	var (
		today  string
		window int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "List overdue, due today and upcoming bills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := calendar.Today(time.Local)

			if today != "" {
				d, err := calendar.Parse(today)
				if err != nil {
					return err
				}

				day = d
			}

			var windowDays *int
			if cmd.Flags().Changed("window") {
				windowDays = &window
			}

			a, err := e.App(cmd.Context())
			if err != nil {
				return err
			}

			b, err := a.Bills.Summary(cmd.Context(), day, windowDays)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			for _, section := range []struct {
				title string
				bills []*bill.Bill
			}{
				{"Overdue", b.Overdue},
				{"Due today", b.DueToday},
				{"Upcoming", b.Upcoming},
			} {
				fmt.Fprintf(out, "%s (%d)\n", section.title, len(section.bills))

				if err := printBills(out, section.bills); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&today, "today", "", "classify against this date instead of today (YYYY-MM-DD)")
	cmd.Flags().IntVar(&window, "window", 0, "days ahead counted as upcoming, negative for no limit (default from BILLS_UPCOMING_WINDOW_DAYS)")

	return cmd
}

// resolveCategory accepts a category id or a case insensitive name.
func resolveCategory(ctx context.Context, a *app.App, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	cats, err := a.Categories.List(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	for _, c := range cats {
		if strings.EqualFold(c.Name, ref) {
			return c.ID, nil
		}
	}

	return uuid.Nil, fmt.Errorf("unknown category %q", ref)
}

func printBills(w io.Writer, bills []*bill.Bill) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, b := range bills {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.DueDate, b.Description, b.Amount.StringFixed(2), b.Status, part(b))
	}

	return tw.Flush()
}

func part(b *bill.Bill) string {
	if i, ok := b.Installment(); ok {
		return fmt.Sprintf("%d/%d", i.Current, i.Total)
	}

	if r, ok := b.Recurring(); ok {
		return string(r.Type)
	}

	return ""
}

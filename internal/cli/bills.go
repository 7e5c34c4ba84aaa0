package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/client"
	"github.com/roomly/roomly/internal/view"
)

func newBillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bills",
		Aliases: []string{"bill"},
		Short:   "List and manage bills",
	}

	cmd.AddCommand(
		newBillsListCmd(),
		newBillAddCmd(),
		newBillEditCmd(),
		&cobra.Command{
			Use:   "upcoming <property-id>",
			Short: "Show unpaid bills due within a week",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newAPIClient()
				if err != nil {
					return err
				}
				bills, err := c.UpcomingBills(args[0])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(bills)
				}
				loc, err := location()
				if err != nil {
					return err
				}
				return printBillTable(os.Stdout, bills, loc)
			},
		},
		&cobra.Command{
			Use:   "pay <bill-id>",
			Short: "Mark a bill paid",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newAPIClient()
				if err != nil {
					return err
				}
				b, err := c.PayBill(args[0])
				if err != nil {
					return fmt.Errorf("paying bill: %w", err)
				}
				if isJSON() {
					return printJSON(b)
				}
				fmt.Printf("✓ Bill %s paid.\n", b.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <bill-id>",
			Short: "Delete a bill and its PDF",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newAPIClient()
				if err != nil {
					return err
				}
				if err := c.DeleteBill(args[0]); err != nil {
					return fmt.Errorf("removing bill: %w", err)
				}
				fmt.Printf("Bill %s removed.\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newBillsListCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list <property-id>",
		Short: "List a property's bills",
		Long:  "List a property's bills. --filter selects all, due (including overdue) or paid.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := bill.ParseFilter(filter)
			if err != nil {
				return err
			}
			c, err := newAPIClient()
			if err != nil {
				return err
			}

			state := view.ReduceBills(view.NewBillsState(args[0]), view.LoadStarted{})
			bills, err := c.ListBills(args[0], "")
			if err != nil {
				state = view.ReduceBills(state, view.LoadFailed{Err: err})
				return fmt.Errorf("listing bills: %s", state.Err)
			}
			state = view.ReduceBills(state, view.BillsLoaded{Bills: bills})
			state = view.ReduceBills(state, view.FilterSelected{Filter: f})

			if isJSON() {
				return printJSON(state.Visible())
			}
			loc, err := location()
			if err != nil {
				return err
			}
			if err := printFilterTabs(os.Stdout, state); err != nil {
				return err
			}
			return printBillTable(os.Stdout, state.Visible(), loc)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "all", "all|due|paid")
	return cmd
}

// printFilterTabs writes the filter tabs with counts, marking the active one.
func printFilterTabs(w io.Writer, s view.BillsState) error {
	var tabs []string
	for _, f := range bill.Filters {
		label := fmt.Sprintf("%s (%d)", f.Label(), len(bill.Select(s.Bills, f)))
		if f == s.Filter {
			label = "[" + label + "]"
		}
		tabs = append(tabs, label)
	}
	_, err := fmt.Fprintf(w, "%s\n\n", strings.Join(tabs, "  "))
	return err
}

func newBillAddCmd() *cobra.Command {
	var in client.BillInput
	var pdfPath string

	cmd := &cobra.Command{
		Use:   "add <property-id>",
		Short: "Add a bill to a property you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pdfPath != "" {
				data, err := os.ReadFile(pdfPath)
				if err != nil {
					return fmt.Errorf("reading pdf: %w", err)
				}
				in.PDF = data
			}
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			b, err := c.AddBill(args[0], in)
			if err != nil {
				return fmt.Errorf("adding bill: %w", err)
			}
			if isJSON() {
				return printJSON(b)
			}
			fmt.Printf("✓ Bill %s added (%s).\n", b.ID, b.Status.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Amount, "amount", "", "amount, e.g. 1200 or $1,200.00")
	cmd.Flags().StringVar(&in.DueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Description, "description", "", "what the bill is for")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "path to a PDF copy of the bill")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func newBillEditCmd() *cobra.Command {
	var description, amount, due string

	cmd := &cobra.Command{
		Use:   "edit <bill-id>",
		Short: "Edit a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ch client.BillChanges
			if cmd.Flags().Changed("description") {
				ch.Description = &description
			}
			if cmd.Flags().Changed("amount") {
				ch.Amount = &amount
			}
			if cmd.Flags().Changed("due") {
				ch.DueDate = &due
			}
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			b, err := c.UpdateBill(args[0], ch)
			if err != nil {
				return fmt.Errorf("editing bill: %w", err)
			}
			if isJSON() {
				return printJSON(b)
			}
			fmt.Printf("✓ Bill %s updated (%s).\n", b.ID, b.Status.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "what the bill is for")
	cmd.Flags().StringVar(&amount, "amount", "", "amount")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/money"
	"github.com/roomly/roomly/internal/view"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"home"},
		Short:   "Show what needs attention across your properties",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			snap, err := c.Dashboard()
			if err != nil {
				return fmt.Errorf("loading dashboard: %w", err)
			}
			if isJSON() {
				return printJSON(snap)
			}
			return printDashboard(snap)
		},
	}
}

func printDashboard(snap *view.DashboardSnapshot) error {
	loc, err := location()
	if err != nil {
		return err
	}

	fmt.Printf("Hello, %s (%s)\n\n", snap.User.Name, snap.User.Role)
	fmt.Printf("Properties:   %d\n", len(snap.Properties))
	fmt.Printf("Outstanding:  %s", money.Format(snap.Outstanding))
	if snap.OverdueCount > 0 {
		fmt.Printf(" (%d overdue)", snap.OverdueCount)
	}
	fmt.Println()

	if b := snap.NextBill; b != nil {
		fmt.Printf("Next bill:    %s due %s (%s)\n",
			money.Format(b.Amount), b.DueDate.In(loc).Format("Mon Jan 2"), b.Status.Label())
	}
	if e := snap.NextMaintenance; e != nil {
		fmt.Printf("Next visit:   %s on %s\n", e.Description, e.ScheduledAt.In(loc).Format("Mon Jan 2 3:04 PM"))
	}
	if snap.UpcomingCount > 1 {
		fmt.Printf("              %d visits in the next few days\n", snap.UpcomingCount)
	}
	return nil
}

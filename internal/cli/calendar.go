package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/calendar"
	"github.com/roomly/roomly/internal/view"
)

func newCalendarCmd() *cobra.Command {
	var month, day, weekStart string
	var shift int

	cmd := &cobra.Command{
		Use:   "calendar <property-id>",
		Short: "Show the maintenance calendar for a month",
		Long: `Show a month grid of a property's maintenance. Days with events are marked
with a dot and today is bracketed. The events of the selected day (--day,
default today) are listed under the grid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := location()
			if err != nil {
				return err
			}
			if weekStart == "" {
				weekStart = getWeekStart()
			}
			first, err := calendar.ParseWeekStart(weekStart)
			if err != nil {
				return err
			}

			c, err := newAPIClient()
			if err != nil {
				return err
			}
			events, err := c.ListMaintenance(args[0], "")
			if err != nil {
				return fmt.Errorf("loading maintenance: %w", err)
			}

			state := view.NewMaintenanceState(args[0], time.Now(), loc)
			state.FirstWeekday = first
			state = view.ReduceMaintenance(state, view.EventsLoaded{Events: events})
			if day != "" {
				d, err := calendar.ParseDay(day)
				if err != nil {
					return err
				}
				state = view.ReduceMaintenance(state, view.DaySelected{Day: d})
			}
			if month != "" {
				m, err := calendar.ParseMonth(month)
				if err != nil {
					return err
				}
				state.Month = m
			}
			if shift != 0 {
				state = view.ReduceMaintenance(state, view.MonthShifted{N: shift})
			}

			if isJSON() {
				return printJSON(state.Grid())
			}
			if err := printGrid(os.Stdout, state.Grid()); err != nil {
				return err
			}
			fmt.Printf("\n%s:\n", state.SelectedDay)
			return printEventList(os.Stdout, state.SelectedEvents(), loc)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to show (YYYY-MM, default the selected day's month)")
	cmd.Flags().StringVar(&day, "day", "", "day to list events for (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&shift, "shift", 0, "move the grid by this many months")
	cmd.Flags().StringVar(&weekStart, "week-start", "", "first column of the grid, sunday or monday (default: config week_start, then sunday)")
	return cmd
}

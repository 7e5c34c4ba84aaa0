package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/client"
	"github.com/roomly/roomly/internal/maintenance"
)

func newMaintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maintenance",
		Aliases: []string{"maint"},
		Short:   "List and schedule maintenance",
	}

	cmd.AddCommand(
		newMaintenanceListCmd(),
		newMaintenanceAddCmd(),
		&cobra.Command{
			Use:   "upcoming <property-id>",
			Short: "Show scheduled maintenance in the next week",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newAPIClient()
				if err != nil {
					return err
				}
				events, err := c.UpcomingMaintenance(args[0])
				if err != nil {
					return err
				}
				return printEvents(events)
			},
		},
		&cobra.Command{
			Use:       "status <event-id> <scheduled|completed|cancelled>",
			Short:     "Change an event's status",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{string(maintenance.StatusScheduled), string(maintenance.StatusCompleted), string(maintenance.StatusCancelled)},
			RunE: func(cmd *cobra.Command, args []string) error {
				status := strings.ToLower(args[1])
				if !maintenance.Status(status).IsValid() {
					return fmt.Errorf("invalid status %q (use scheduled, completed or cancelled)", args[1])
				}
				c, err := newAPIClient()
				if err != nil {
					return err
				}
				e, err := c.SetMaintenanceStatus(args[0], status)
				if err != nil {
					return fmt.Errorf("changing status: %w", err)
				}
				if isJSON() {
					return printJSON(e)
				}
				fmt.Printf("✓ %s is now %s.\n", e.Description, e.Status.Label())
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <event-id>",
			Short: "Delete a maintenance event",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newAPIClient()
				if err != nil {
					return err
				}
				if err := c.DeleteMaintenance(args[0]); err != nil {
					return fmt.Errorf("removing event: %w", err)
				}
				fmt.Printf("Event %s removed.\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newMaintenanceListCmd() *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "list <property-id>",
		Short: "List a property's maintenance events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			events, err := c.ListMaintenance(args[0], day)
			if err != nil {
				return fmt.Errorf("listing maintenance: %w", err)
			}
			return printEvents(events)
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "only events on this day (YYYY-MM-DD)")
	return cmd
}

func newMaintenanceAddCmd() *cobra.Command {
	var in client.MaintenanceInput

	cmd := &cobra.Command{
		Use:   "add <property-id> <description>",
		Short: "Schedule maintenance",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Description = strings.Join(args[1:], " ")
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			e, err := c.AddMaintenance(args[0], in)
			if err != nil {
				return fmt.Errorf("scheduling maintenance: %w", err)
			}
			if isJSON() {
				return printJSON(e)
			}
			fmt.Printf("✓ Event %s added (%s).\n", e.ID, e.Status.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ScheduledAt, "at", "", "when, as YYYY-MM-DD or RFC 3339 (e.g. 2026-10-20T10:00:00-04:00)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "notes for the visit")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func printEvents(events []*maintenance.Event) error {
	if isJSON() {
		return printJSON(events)
	}
	loc, err := location()
	if err != nil {
		return err
	}
	return printEventList(os.Stdout, events, loc)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Add or remove tenants of a property",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <property-id> <email>",
			Short: "Add a tenant by email",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newAPIClient()
				if err != nil {
					return err
				}
				u, err := c.AddTenant(args[0], args[1])
				if err != nil {
					return fmt.Errorf("adding tenant: %w", err)
				}
				if isJSON() {
					return printJSON(u)
				}
				fmt.Printf("✓ %s is now a tenant of %s.\n", u.Email, args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <property-id> <user-id>",
			Short: "Remove a tenant",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newAPIClient()
				if err != nil {
					return err
				}
				if err := c.RemoveTenant(args[0], args[1]); err != nil {
					return fmt.Errorf("removing tenant: %w", err)
				}
				fmt.Printf("✓ Tenant %s removed from %s.\n", args[1], args[0])
				return nil
			},
		},
	)
	return cmd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind <property-id>",
		Short: "Email tenants their due bills and upcoming maintenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := c.Remind(args[0])
			if err != nil {
				return fmt.Errorf("sending reminder: %w", err)
			}
			if isJSON() {
				return printJSON(resp)
			}
			fmt.Printf("✓ Reminder sent to %s (%d bills, %d maintenance).\n",
				strings.Join(resp.SentTo, ", "), resp.Bills, resp.Maintenance)
			return nil
		},
	}
}

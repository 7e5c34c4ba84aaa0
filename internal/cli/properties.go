package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/client"
	"github.com/roomly/roomly/internal/property"
)

func newPropertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "properties",
		Aliases: []string{"property", "props"},
		Short:   "List and manage properties",
		Args:    cobra.NoArgs,
		RunE:    runPropertiesList,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the properties you can see",
			Args:  cobra.NoArgs,
			RunE:  runPropertiesList,
		},
		newPropertyAddCmd(),
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a property and its tenants",
			Args:  cobra.ExactArgs(1),
			RunE:  runPropertyShow,
		},
		newPropertyUpdateCmd(),
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Delete a property with its bills and maintenance",
			Args:  cobra.ExactArgs(1),
			RunE:  runPropertyRemove,
		},
	)
	return cmd
}

func runPropertiesList(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}
	props, err := c.ListProperties()
	if err != nil {
		return fmt.Errorf("listing properties: %w", err)
	}
	if isJSON() {
		return printJSON(props)
	}
	return printPropertyTable(os.Stdout, props)
}

func newPropertyAddCmd() *cobra.Command {
	var in property.NewProperty

	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Add a property you own",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Address = strings.Join(args, " ")
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			p, err := c.AddProperty(in)
			if err != nil {
				return fmt.Errorf("adding property: %w", err)
			}
			if isJSON() {
				return printJSON(p)
			}
			fmt.Println("Property added successfully!")
			printPropertySummary(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Rent, "rent", "", "monthly rent, e.g. 1450 or $1,450.00")
	cmd.Flags().IntVar(&in.Bedrooms, "beds", 0, "bedrooms")
	cmd.Flags().Float64Var(&in.Bathrooms, "baths", 0, "bathrooms")
	cmd.Flags().IntVar(&in.AreaSqft, "sqft", 0, "floor area in square feet")
	_ = cmd.MarkFlagRequired("rent")

	return cmd
}

func runPropertyShow(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}
	p, err := c.GetProperty(args[0])
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(p)
	}
	printPropertySummary(&p.Property)
	fmt.Println()
	printTenants(p.Tenants)
	return nil
}

func newPropertyUpdateCmd() *cobra.Command {
	var (
		address, rent string
		beds, sqft    int
		baths         float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a property's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ch client.PropertyChanges
			flags := cmd.Flags()
			if flags.Changed("address") {
				ch.Address = &address
			}
			if flags.Changed("rent") {
				ch.Rent = &rent
			}
			if flags.Changed("beds") {
				ch.Bedrooms = &beds
			}
			if flags.Changed("baths") {
				ch.Bathrooms = &baths
			}
			if flags.Changed("sqft") {
				ch.AreaSqft = &sqft
			}

			c, err := newAPIClient()
			if err != nil {
				return err
			}
			p, err := c.UpdateProperty(args[0], ch)
			if err != nil {
				return fmt.Errorf("updating property: %w", err)
			}
			if isJSON() {
				return printJSON(p)
			}
			printPropertySummary(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "street address")
	cmd.Flags().StringVar(&rent, "rent", "", "monthly rent")
	cmd.Flags().IntVar(&beds, "beds", 0, "bedrooms")
	cmd.Flags().Float64Var(&baths, "baths", 0, "bathrooms")
	cmd.Flags().IntVar(&sqft, "sqft", 0, "floor area in square feet")

	return cmd
}

func runPropertyRemove(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}
	if err := c.DeleteProperty(args[0]); err != nil {
		return fmt.Errorf("removing property: %w", err)
	}
	fmt.Printf("Property %s removed.\n", args[0])
	return nil
}

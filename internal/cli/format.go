package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/calendar"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/money"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/user"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(p *property.Property) {
	fmt.Printf("Property %s\n", p.ID)
	fmt.Printf("  Address:      %s\n", p.Address)
	fmt.Printf("  Rent:         %s\n", money.Format(p.Rent))
	fmt.Printf("  Beds/Baths:   %d / %g\n", p.Bedrooms, p.Bathrooms)
	if p.AreaSqft > 0 {
		fmt.Printf("  Area:         %d sqft\n", p.AreaSqft)
	}
	fmt.Printf("  Tenants:      %d\n", len(p.TenantIDs))
	fmt.Printf("  Maintenance:  %d events\n", p.MaintenanceCount)
}

// printTenants prints tenant accounts.
func printTenants(tenants []*user.User) {
	if len(tenants) == 0 {
		fmt.Println("No tenants.")
		return
	}
	fmt.Printf("Tenants (%d):\n", len(tenants))
	for _, t := range tenants {
		fmt.Printf("  %s  %s <%s>\n", t.ID, t.Name, t.Email)
	}
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(w io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		_, err := fmt.Fprintln(w, "No properties found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tADDRESS\tRENT\tBED\tBATH\tTENANTS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-------\t----\t---\t----\t-------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%g\t%d\n",
			p.ID, truncate(p.Address, 40), money.Format(p.Rent), p.Bedrooms, p.Bathrooms, len(p.TenantIDs)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d properties\n", len(props))
	return err
}

// printBillTable prints bills with due dates in loc.
func printBillTable(w io.Writer, bills []*bill.Bill, loc *time.Location) error {
	if len(bills) == 0 {
		_, err := fmt.Fprintln(w, "No bills.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tDUE\tAMOUNT\tSTATUS\tDESCRIPTION\tPDF"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, b := range bills {
		pdf := ""
		if b.PDFURL != "" {
			pdf = "yes"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.DueDate.In(loc).Format("2006-01-02"), money.Format(b.Amount), b.Status.Label(),
			truncate(b.Description, 30), pdf); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(w, "\nOutstanding: %s\n", money.Format(bill.Outstanding(bills)))
	return err
}

// printEventList prints maintenance events with times in loc.
func printEventList(w io.Writer, events []*maintenance.Event, loc *time.Location) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No maintenance scheduled.")
		return err
	}
	for _, e := range events {
		if _, err := fmt.Fprintf(w, "[%s] %s (%s, %s)\n",
			e.ScheduledAt.In(loc).Format("2006-01-02 15:04"), e.Description, e.Status.Label(), e.ID); err != nil {
			return err
		}
		if e.Notes != "" {
			if _, err := fmt.Fprintf(w, "  %s\n", e.Notes); err != nil {
				return err
			}
		}
	}
	return nil
}

// printGrid draws a month grid. Days with events carry a dot, today is
// bracketed and days outside the month are blank.
func printGrid(w io.Writer, g calendar.Grid) error {
	first, err := time.Parse("2006-01", g.Month.String())
	if err != nil {
		return err
	}
	title := first.Format("January 2006")

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", max(0, (35-len(title))/2)), title)
	for _, wd := range g.Weekdays() {
		fmt.Fprintf(&b, " %s  ", wd.String()[:2])
	}
	b.WriteString("\n")
	for _, week := range g.Weeks() {
		for _, c := range week {
			b.WriteString(cellText(c))
		}
		b.WriteString("\n")
	}
	_, err = io.WriteString(w, b.String())
	return err
}

func cellText(c calendar.Cell) string {
	if !c.InMonth {
		return "     "
	}
	mark := " "
	if c.HasEvents {
		mark = "•"
	}
	if c.Today {
		return fmt.Sprintf("[%2d%s]", c.Date.Day, mark)
	}
	return fmt.Sprintf(" %2d%s ", c.Date.Day, mark)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Package cli defines the cobra command tree for roomly.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/client"
	"github.com/roomly/roomly/internal/db"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	flagFormat string
	flagDB     string
	flagTZ     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "roomly",
		Short:         "Manage rental properties, bills and maintenance",
		Long:          "A tool for landlords and tenants to track rental properties, bills and maintenance. Talks to a roomly server, or serves one.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.roomly/roomly.db)")
	root.PersistentFlags().StringVar(&flagTZ, "tz", "", "IANA time zone for dates (default: $ROOMLY_TZ, then config, then local)")

	root.AddCommand(
		newServeCmd(),
		newSignupCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newConfigCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("roomly %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
			},
		},
		newPropertiesCmd(),
		newTenantCmd(),
		newBillsCmd(),
		newMaintenanceCmd(),
		newCalendarCmd(),
		newDashboardCmd(),
		newRemindCmd(),
		newSeedCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or default path.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the roomly API.
func newAPIClient() (*client.Client, error) {
	c := client.New(getServerURL(), getToken())
	name := timezoneName()
	if name == "" {
		return c, nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	return c.WithTimezone(name), nil
}

// timezoneName returns the --tz flag, $ROOMLY_TZ or the configured zone.
func timezoneName() string {
	if flagTZ != "" {
		return flagTZ
	}
	return setting("ROOMLY_TZ", func(c CLIConfig) string { return c.TimeZone }, "")
}

// location returns the display time zone.
func location() (*time.Location, error) {
	name := timezoneName()
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	return loc, nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

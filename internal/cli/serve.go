package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/logging"
	"github.com/roomly/roomly/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API server. Configuration comes from ROOMLY_* environment variables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(port int) error {
	cfg := auth.ConfigFromEnv()
	logging.Setup(os.Stdout, cfg.DevMode)

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	srv, err := web.NewServer(database, cfg, web.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			slog.Warn("closing server", "error", err)
		}
	}()
	return srv.ListenAndServe(port)
}

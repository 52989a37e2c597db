package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tgienger/issues/internal/db"
	"github.com/tgienger/issues/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var listen, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development backend on SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = app.cfg.Listen
			}
			if dbPath == "" {
				dbPath = app.cfg.DBPath
			}

			database, err := db.New(dbPath)
			if err != nil {
				return err
			}
			defer database.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(database, app.log).Run(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :3001)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file (default under the XDG data dir)")
	return cmd
}

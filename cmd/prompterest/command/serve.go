package command

import (
	"os"
	"os/signal"
	"syscall"

	"prompterest/database"
	"prompterest/internal/app"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}

			if migrateFirst {
				if err := database.RunMigrations(cfg.DatabaseURL, log); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer server.Close()

			return server.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

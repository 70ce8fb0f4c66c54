package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/s3presign/pkg/app"
	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run an HTTP service issuing upload authorizations",
	Long: `serve exposes the same check-then-authorize operation over HTTP:

  POST /api/v1/uploads/presign   {"bucket": "...", "key": "...", "expires_in": 3600}
  GET  /api/v1/health/s3
  GET  /metrics                  (when metrics.enabled)`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.NewApp(ctx, configs.GetConfig())
		if err != nil {
			return err
		}

		if configs.Watch(a.Reload) {
			log.Logger().Info().Str("file", configs.GetViper().ConfigFileUsed()).Msg("watching config file for changes")
		}

		return a.Run(ctx)
	},
}

func registerServeCommands() {
	flags := serveCmd.Flags()
	flags.Int("port", configs.DefaultPort, "listen port")
	flags.String("host", configs.DefaultHost, "listen address")

	rootCmd.AddCommand(serveCmd)
}

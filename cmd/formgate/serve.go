package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/formgate/bootstrap"
	"github.com/artpar/formgate/config"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the formgate HTTP API.

Configuration comes from formgate.yaml (or --config) with FORMGATE_*
environment overrides. Without a config file the environment alone is
used and forms are kept in memory unless FORMGATE_STORAGE_DRIVER says
otherwise.

With --hot-reload the config file is watched and SIGHUP triggers a reload.
The log level and auth.api_key_hash apply without a restart.

Examples:
  formgate serve
  formgate serve --config /etc/formgate/config.yaml
  FORMGATE_STORAGE_DRIVER=sqlite formgate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	_, statErr := os.Stat(cfgFile)
	hasConfigFile := statErr == nil

	if !hasConfigFile || !hotReload {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return err
		}
		app, err := bootstrap.New(cfg)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		return app.Run()
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger := bootstrap.SetupLogger(cfg.Logging)

	holder, err := config.NewHolder(cfgFile, logger.With().Str("component", "config").Logger())
	if err != nil {
		return err
	}
	defer holder.Stop()

	app, err := bootstrap.New(holder.Get(), bootstrap.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	app.WatchConfig(holder)

	if err := holder.WatchFile(); err != nil {
		logger.Warn().Err(err).Msg("config file watch disabled")
	}
	holder.WatchSignals()

	return app.Run()
}

// quietLogger is used by the management commands.
func quietLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
}

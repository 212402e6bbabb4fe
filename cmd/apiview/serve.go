package main

import (
	"github.com/spf13/cobra"

	"github.com/artpar/apiview/bootstrap"
	"github.com/artpar/apiview/config"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON:API server",
	Long: `Start the apiview server.

The server will:
  - Load configuration from apiview.yaml (or --config), falling back to
    APIVIEW_* environment variables
  - Parse and register the view definitions
  - Serve every registered view as JSON:API resource endpoints

Examples:
  apiview serve
  apiview serve --config /etc/apiview/config.yaml
  apiview serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}

	if hotReload {
		holder, err := config.NewHolder(cfgFile, app.Logger)
		if err == nil {
			holder.OnChange(func(newCfg *config.Config) {
				if app.Metrics != nil {
					app.Metrics.ConfigReloads.Inc()
				}
			})
			if err := holder.WatchFile(); err != nil {
				app.Logger.Warn().Err(err).Msg("config file watch unavailable")
			}
			holder.WatchSignals()
			defer holder.Stop()
		} else {
			app.Logger.Warn().Err(err).Msg("hot reload disabled: config file not loadable")
		}
	}

	return app.Run()
}

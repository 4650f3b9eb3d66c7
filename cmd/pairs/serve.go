package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gregtusar/pairs/api"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve backtests over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), map[string]string{
				"port":     "server.port",
				"provider": "market_data.provider",
				"csv-dir":  "market_data.csv_dir",
			})
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger, closeLog := newLogger(cfg)
			defer closeLog()

			if cfg.Server.AuthSecret == "" {
				logger.Warn("server.auth_secret is empty; backtest endpoints are unauthenticated")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(newProvider(cfg, logger), cfg.Strategy.AnalyzerConfig(), logger, api.Options{
				Port:       cfg.Server.Port,
				AuthSecret: cfg.Server.AuthSecret,
			})
			if err := server.Start(ctx); err != nil {
				return fmt.Errorf("api server failed: %w", err)
			}
			logger.Info("API server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 8080, "listen port")
	flags.String("provider", "", "market data provider: yahoo or csv")
	flags.String("csv-dir", "", "directory of <SYMBOL>.csv files for the csv provider")

	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/gregtusar/pairs/internal/config"
	"github.com/gregtusar/pairs/internal/logging"
	"github.com/gregtusar/pairs/pkg/marketdata"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pairs",
		Short:         "Statistical arbitrage pairs backtester",
		Long:          `Estimates a hedge ratio between two equities, tests the spread for cointegration and backtests a z-score mean reversion strategy on it`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(newBacktestCmd(), newServeCmd(), newTokenCmd())
	return rootCmd
}

// loadConfig reads configuration with the given flags bound over their
// viper keys, so an explicitly set flag wins over file and environment.
func loadConfig(flags *pflag.FlagSet, bindings map[string]string) (*config.Config, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(v, flags, bindings); err != nil {
		return nil, err
	}
	return config.FromViper(v)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for flag, key := range bindings {
		f := flags.Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func newLogger(cfg *config.Config) (*logrus.Logger, func()) {
	logger, closer, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		fallback := logrus.New()
		fallback.SetFormatter(&logrus.JSONFormatter{})
		fallback.WithError(err).Error("Invalid logging config, using defaults")
		return fallback, func() {}
	}
	return logger, func() { _ = closer.Close() }
}

func newProvider(cfg *config.Config, logger *logrus.Logger) marketdata.Provider {
	if cfg.MarketData.Provider == "csv" {
		logger.WithField("dir", cfg.MarketData.CSVDir).Info("Using CSV market data")
		return marketdata.NewCSVProvider(cfg.MarketData.CSVDir)
	}
	logger.WithField("base_url", cfg.MarketData.BaseURL).Info("Using Yahoo Finance market data")
	return marketdata.NewYahooClient(marketdata.YahooOptions{
		BaseURL:           cfg.MarketData.BaseURL,
		APIKey:            cfg.MarketData.APIKey,
		RequestsPerSecond: cfg.MarketData.RequestsPerSecond,
		Timeout:           cfg.MarketData.Timeout,
		RetryCount:        cfg.MarketData.RetryCount,
	}, logger)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gregtusar/pairs/pkg/marketdata"
	"github.com/gregtusar/pairs/pkg/models"
	"github.com/gregtusar/pairs/pkg/pairs"
	"github.com/gregtusar/pairs/pkg/report"
	"github.com/spf13/cobra"
)

func newBacktestCmd() *cobra.Command {
	var (
		format    string
		seriesOut string
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the cointegration test and backtest for one pair",
		Example: `  pairs backtest --ticker-a GOOG --ticker-b MSFT --start 2020-01-01 --end 2024-01-01
  pairs backtest --provider csv --csv-dir ./data --format json --series-out series.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd.Flags(), map[string]string{
				"ticker-a":  "pair.ticker_a",
				"ticker-b":  "pair.ticker_b",
				"start":     "pair.start",
				"end":       "pair.end",
				"window":    "strategy.window",
				"entry":     "strategy.entry_threshold",
				"exit":      "strategy.exit_threshold",
				"provider":  "market_data.provider",
				"csv-dir":   "market_data.csv_dir",
				"log-level": "logging.level",
			})
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger, closeLog := newLogger(cfg)
			defer closeLog()

			start, end, err := cfg.Pair.Range()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tickerA := strings.ToUpper(cfg.Pair.TickerA)
			tickerB := strings.ToUpper(cfg.Pair.TickerB)
			pair, err := marketdata.FetchPair(ctx, newProvider(cfg, logger), tickerA, tickerB, start, end)
			if err != nil {
				return fmt.Errorf("failed to load prices for %s/%s: %w", tickerA, tickerB, err)
			}

			result, err := pairs.NewAnalyzer(cfg.Strategy.AnalyzerConfig(), logger).Run(pair)
			if err != nil {
				return fmt.Errorf("backtest failed: %w", err)
			}

			if err := report.WriteSummary(cmd.OutOrStdout(), result, outFormat); err != nil {
				return err
			}
			if seriesOut != "" {
				if err := writeSeries(seriesOut, result); err != nil {
					return err
				}
				logger.WithField("path", seriesOut).Info("Wrote series export")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("ticker-a", "", "first symbol (dependent leg)")
	flags.String("ticker-b", "", "second symbol (hedge leg)")
	flags.String("start", "", "first day of history, YYYY-MM-DD")
	flags.String("end", "", "day after the last day of history, YYYY-MM-DD")
	flags.Int("window", pairs.DefaultWindow, "rolling z-score window")
	flags.Float64("entry", pairs.DefaultEntryThreshold, "z-score magnitude that opens a position")
	flags.Float64("exit", pairs.DefaultExitThreshold, "z-score magnitude that closes a position")
	flags.String("provider", "", "market data provider: yahoo or csv")
	flags.String("csv-dir", "", "directory of <SYMBOL>.csv files for the csv provider")
	flags.String("log-level", "", "log level")
	flags.StringVar(&format, "format", "text", "summary format: text, json or yaml")
	flags.StringVar(&seriesOut, "series-out", "", "write the per-day series to this file (.csv or .json)")

	return cmd
}

func writeSeries(path string, result *models.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create series file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = report.WriteSeriesJSON(f, result)
	} else {
		err = report.WriteSeriesCSV(f, result)
	}
	if err != nil {
		return fmt.Errorf("failed to write series: %w", err)
	}
	return f.Close()
}

package pairs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gregtusar/pairs/pkg/models"
	"github.com/gregtusar/pairs/pkg/stats"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Window         int
	Thresholds     Thresholds
	Significance   float64
	PeriodsPerYear float64
}

func DefaultConfig() Config {
	return Config{
		Window:         DefaultWindow,
		Thresholds:     DefaultThresholds(),
		Significance:   DefaultSignificance,
		PeriodsPerYear: DefaultPeriodsPerYear,
	}
}

func (c Config) Validate() error {
	if c.Window < 2 {
		return fmt.Errorf("window must be at least 2, got %d", c.Window)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Significance <= 0 || c.Significance >= 1 {
		return fmt.Errorf("significance must be in (0, 1), got %v", c.Significance)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive, got %v", c.PeriodsPerYear)
	}
	return nil
}

// MinObservations is the shortest aligned history a run accepts.
func (c Config) MinObservations() int {
	if c.Window+1 > stats.MinADFObservations {
		return c.Window + 1
	}
	return stats.MinADFObservations
}

func (c Config) params() models.RunParams {
	return models.RunParams{
		Window:         c.Window,
		EntryThreshold: c.Thresholds.Entry,
		ExitThreshold:  c.Thresholds.Exit,
		Significance:   c.Significance,
		PeriodsPerYear: c.PeriodsPerYear,
	}
}

// Analyzer runs hedge ratio estimation, spread construction, the
// stationarity test, signal generation and the backtest over one pair.
type Analyzer struct {
	config Config
	logger *logrus.Logger
}

func NewAnalyzer(config Config, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		config: config,
		logger: logger,
	}
}

func (a *Analyzer) Config() Config {
	return a.config
}

// Run executes the full pipeline. Alignment, estimation and sample-size
// failures abort the run; a degenerate spread, flat rolling windows and an
// undefined Sharpe ratio are reported through sentinels and warnings.
func (a *Analyzer) Run(pair models.AlignedPair) (*models.RunResult, error) {
	if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analyzer config: %w", err)
	}
	if err := ValidatePair(pair); err != nil {
		return nil, err
	}
	if n, need := pair.Len(), a.config.MinObservations(); n < need {
		return nil, fmt.Errorf("%w: %d aligned observations, need at least %d", ErrInsufficientData, n, need)
	}

	log := a.logger.WithFields(logrus.Fields{
		"symbol_a": pair.SymbolA,
		"symbol_b": pair.SymbolB,
		"rows":     pair.Len(),
	})

	hedge, err := EstimateHedgeRatio(pair.A, pair.B)
	if err != nil {
		return nil, err
	}
	log.WithField("hedge_ratio", hedge.Ratio).Info("Estimated hedge ratio")

	spread, err := BuildSpread(pair.A, pair.B, hedge.Ratio)
	if err != nil {
		return nil, err
	}

	stationarity, err := CheckStationarity(spread, a.config.Significance)
	switch {
	case err == nil:
		entry := log.WithFields(logrus.Fields{
			"adf_statistic": stationarity.Statistic,
			"p_value":       stationarity.PValue,
			"used_lag":      stationarity.UsedLag,
		})
		if stationarity.Verdict == models.VerdictCointegrated {
			entry.Info(stationarity.Verdict.Message())
		} else {
			entry.Warn(stationarity.Verdict.Message())
		}
	case errors.Is(err, ErrNumericDegeneracy):
		stationarity = models.StationarityResult{
			Statistic: math.NaN(),
			PValue:    math.NaN(),
			Verdict:   models.VerdictUndetermined,
		}
		log.WithError(err).Warn(stationarity.Verdict.Message())
	default:
		return nil, err
	}

	z, degenerate, err := RollingZScore(spread, a.config.Window)
	if err != nil {
		return nil, err
	}
	if degenerate > 0 {
		log.WithField("degenerate_windows", degenerate).Warn("Rolling spread deviation is zero; holding positions on those steps")
	}
	positions := GeneratePositions(z, a.config.Thresholds)

	bt, err := Backtest(positions, spread, a.config.PeriodsPerYear)
	if err != nil {
		return nil, err
	}

	summaryLog := log.WithField("total_profit", bt.Summary.TotalProfit)
	if bt.Summary.SharpeDefined {
		summaryLog.WithField("sharpe_ratio", bt.Summary.SharpeRatio).Info("Backtest complete")
	} else {
		summaryLog.Warn("Backtest complete; Sharpe ratio is undefined because pnl has zero variance")
	}

	return &models.RunResult{
		SymbolA:         pair.SymbolA,
		SymbolB:         pair.SymbolB,
		Params:          a.config.params(),
		HedgeRatio:      hedge.Ratio,
		Intercept:       hedge.Intercept,
		Stationarity:    stationarity,
		Summary:         bt.Summary,
		DegenerateSteps: degenerate,
		Series:          buildSeries(pair, spread, z, positions, bt),
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// ValidatePair checks the input boundary: equal lengths, strictly
// increasing timestamps and finite prices.
func ValidatePair(pair models.AlignedPair) error {
	if len(pair.A) != len(pair.Times) || len(pair.B) != len(pair.Times) {
		return fmt.Errorf("%w: %d timestamps, %d prices for %s, %d prices for %s",
			ErrInputAlignment, len(pair.Times), len(pair.A), pair.SymbolA, len(pair.B), pair.SymbolB)
	}
	for t := 1; t < len(pair.Times); t++ {
		if !pair.Times[t].After(pair.Times[t-1]) {
			return fmt.Errorf("%w: timestamps not strictly increasing at index %d", ErrInputAlignment, t)
		}
	}
	if i := firstNonFinite(pair.A); i >= 0 {
		return fmt.Errorf("%w: %s has non-finite price at index %d", ErrInputAlignment, pair.SymbolA, i)
	}
	if i := firstNonFinite(pair.B); i >= 0 {
		return fmt.Errorf("%w: %s has non-finite price at index %d", ErrInputAlignment, pair.SymbolB, i)
	}
	return nil
}

func buildSeries(pair models.AlignedPair, spread, z []float64, positions []models.Position, bt *BacktestResult) []models.SeriesPoint {
	series := make([]models.SeriesPoint, pair.Len())
	for t := range series {
		point := models.SeriesPoint{
			Time:          pair.Times[t],
			PriceA:        pair.A[t],
			PriceB:        pair.B[t],
			Spread:        spread[t],
			Position:      positions[t],
			PnL:           bt.PnL[t],
			CumulativePnL: bt.CumulativePnL[t],
		}
		if !math.IsNaN(z[t]) {
			v := z[t]
			point.ZScore = &v
		}
		series[t] = point
	}
	return series
}

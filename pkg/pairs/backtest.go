package pairs

import (
	"fmt"
	"math"

	"github.com/gregtusar/pairs/pkg/models"
	"github.com/gregtusar/pairs/pkg/stats"
)

const DefaultPeriodsPerYear = 252

type BacktestResult struct {
	PnL           []float64
	CumulativePnL []float64
	Summary       models.BacktestSummary
}

// StepReturns returns spread[t]-spread[t-1]; index 0 is NaN.
func StepReturns(spread []float64) []float64 {
	returns := make([]float64, len(spread))
	if len(spread) == 0 {
		return returns
	}
	returns[0] = math.NaN()
	for t := 1; t < len(spread); t++ {
		returns[t] = spread[t] - spread[t-1]
	}
	return returns
}

// ApplyLaggedExposure returns pnl[t] = positions[t-1]*returns[t]. The
// position decided at the close of t-1 earns the move from t-1 to t;
// pnl[0] is zero.
func ApplyLaggedExposure(positions []models.Position, returns []float64) ([]float64, error) {
	if len(positions) != len(returns) {
		return nil, fmt.Errorf("%w: %d positions for %d returns", ErrInputAlignment, len(positions), len(returns))
	}

	for t, p := range positions {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: invalid position %d at step %d", ErrInputAlignment, int(p), t)
		}
	}

	pnl := make([]float64, len(returns))
	for t := 1; t < len(returns); t++ {
		pnl[t] = float64(positions[t-1]) * returns[t]
	}
	return pnl, nil
}

// Backtest scores positions against the realized spread moves.
func Backtest(positions []models.Position, spread []float64, periodsPerYear float64) (*BacktestResult, error) {
	pnl, err := ApplyLaggedExposure(positions, StepReturns(spread))
	if err != nil {
		return nil, err
	}

	cumulative := make([]float64, len(pnl))
	var running float64
	for t, v := range pnl {
		running += v
		cumulative[t] = running
	}

	summary := models.BacktestSummary{SharpeRatio: math.NaN()}
	if len(cumulative) > 0 {
		summary.TotalProfit = cumulative[len(cumulative)-1]
	}
	if len(pnl) > 1 {
		if sharpe, err := SharpeRatio(pnl[1:], periodsPerYear); err == nil {
			summary.SharpeRatio = sharpe
			summary.SharpeDefined = true
		}
	}

	return &BacktestResult{
		PnL:           pnl,
		CumulativePnL: cumulative,
		Summary:       summary,
	}, nil
}

// SharpeRatio returns sqrt(periodsPerYear)*mean/std of the per-step pnl.
// It fails with ErrNumericDegeneracy when the pnl has no variance.
func SharpeRatio(pnl []float64, periodsPerYear float64) (float64, error) {
	if len(pnl) < 2 {
		return math.NaN(), fmt.Errorf("%w: sharpe ratio needs at least 2 returns", ErrNumericDegeneracy)
	}
	mean, std := stats.MeanStdDev(pnl)
	if std == 0 || math.IsNaN(std) {
		return math.NaN(), fmt.Errorf("%w: pnl has zero variance", ErrNumericDegeneracy)
	}
	return math.Sqrt(periodsPerYear) * mean / std, nil
}

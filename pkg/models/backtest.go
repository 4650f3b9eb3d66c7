package models

import (
	"encoding/json"
	"math"
	"time"
)

type Verdict string

const (
	VerdictCointegrated    Verdict = "cointegrated"
	VerdictNotCointegrated Verdict = "not_cointegrated"
	VerdictUndetermined    Verdict = "undetermined"
)

func (v Verdict) Message() string {
	switch v {
	case VerdictCointegrated:
		return "The pair is cointegrated. Mean reversion strategy applies."
	case VerdictNotCointegrated:
		return "The pair is NOT cointegrated. Risks are high."
	default:
		return "Cointegration could not be determined: the spread is degenerate."
	}
}

type StationarityResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	UsedLag   int     `json:"used_lag"`
	NObs      int     `json:"nobs"`
	Verdict   Verdict `json:"verdict"`
}

func (r StationarityResult) MarshalJSON() ([]byte, error) {
	type alias struct {
		Statistic *float64 `json:"statistic"`
		PValue    *float64 `json:"p_value"`
		UsedLag   int      `json:"used_lag"`
		NObs      int      `json:"nobs"`
		Verdict   Verdict  `json:"verdict"`
	}
	return json.Marshal(alias{
		Statistic: finiteOrNil(r.Statistic),
		PValue:    finiteOrNil(r.PValue),
		UsedLag:   r.UsedLag,
		NObs:      r.NObs,
		Verdict:   r.Verdict,
	})
}

// BacktestSummary holds the final scalars of a run. SharpeRatio is NaN
// when SharpeDefined is false.
type BacktestSummary struct {
	TotalProfit   float64
	SharpeRatio   float64
	SharpeDefined bool
}

func (s BacktestSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalProfit float64  `json:"total_profit"`
		SharpeRatio *float64 `json:"sharpe_ratio"`
	}{
		TotalProfit: s.TotalProfit,
		SharpeRatio: finiteOrNil(s.SharpeRatio),
	})
}

// SeriesPoint is one row of the reporting output. ZScore is nil for the
// warm-up steps and for degenerate windows.
type SeriesPoint struct {
	Time          time.Time `json:"time" yaml:"time"`
	PriceA        float64   `json:"price_a" yaml:"price_a"`
	PriceB        float64   `json:"price_b" yaml:"price_b"`
	Spread        float64   `json:"spread" yaml:"spread"`
	ZScore        *float64  `json:"z_score" yaml:"z_score"`
	Position      Position  `json:"position" yaml:"position"`
	PnL           float64   `json:"pnl" yaml:"pnl"`
	CumulativePnL float64   `json:"cumulative_pnl" yaml:"cumulative_pnl"`
}

type RunParams struct {
	Window         int     `json:"window"`
	EntryThreshold float64 `json:"entry_threshold"`
	ExitThreshold  float64 `json:"exit_threshold"`
	Significance   float64 `json:"significance"`
	PeriodsPerYear float64 `json:"periods_per_year"`
}

type RunResult struct {
	SymbolA         string             `json:"symbol_a"`
	SymbolB         string             `json:"symbol_b"`
	Params          RunParams          `json:"params"`
	HedgeRatio      float64            `json:"hedge_ratio"`
	Intercept       float64            `json:"intercept"`
	Stationarity    StationarityResult `json:"stationarity"`
	Summary         BacktestSummary    `json:"summary"`
	DegenerateSteps int                `json:"degenerate_steps"`
	Series          []SeriesPoint      `json:"-"`
	CreatedAt       time.Time          `json:"created_at"`
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

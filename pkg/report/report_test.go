package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/gregtusar/pairs/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleRun() *models.RunResult {
	z := 2.25
	day := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.RunResult{
		SymbolA: "GOOG",
		SymbolB: "MSFT",
		Params: models.RunParams{
			Window:         30,
			EntryThreshold: 2,
			ExitThreshold:  0.5,
			Significance:   0.05,
			PeriodsPerYear: 252,
		},
		HedgeRatio: 0.4321,
		Stationarity: models.StationarityResult{
			Statistic: -3.9,
			PValue:    0.002,
			Verdict:   models.VerdictCointegrated,
		},
		Summary: models.BacktestSummary{TotalProfit: 12.5, SharpeRatio: 1.75, SharpeDefined: true},
		Series: []models.SeriesPoint{
			{Time: day, PriceA: 100, PriceB: 200, Spread: 13.58},
			{Time: day.AddDate(0, 0, 1), PriceA: 101, PriceB: 199, Spread: 15.01, ZScore: &z, Position: models.PositionShortSpread, PnL: 0, CumulativePnL: 0},
		},
		CreatedAt: day,
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(sampleRun())

	assert.Contains(t, out, "GOOG / MSFT")
	assert.Contains(t, out, "0.432100")
	assert.Contains(t, out, "0.002000")
	assert.Contains(t, out, "The pair is cointegrated. Mean reversion strategy applies.")
	assert.Contains(t, out, "12.5000")
	assert.Contains(t, out, "1.7500")
}

func TestRenderSummaryUndefinedSharpe(t *testing.T) {
	run := sampleRun()
	run.Stationarity = models.StationarityResult{Statistic: math.NaN(), PValue: math.NaN(), Verdict: models.VerdictUndetermined}
	run.Summary = models.BacktestSummary{SharpeRatio: math.NaN()}
	run.DegenerateSteps = 4

	out := RenderSummary(run)
	assert.Contains(t, out, "undefined")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "could not be determined")
	assert.Contains(t, out, "Degenerate steps")
}

func TestWriteSummaryJSONNullSharpe(t *testing.T) {
	run := sampleRun()
	run.Summary = models.BacktestSummary{TotalProfit: 0, SharpeRatio: math.NaN()}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, run, FormatJSON))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Nil(t, doc["sharpe_ratio"])
	assert.Equal(t, "cointegrated", doc["verdict"])
	assert.Equal(t, float64(2), doc["observations"])
}

func TestWriteSummaryYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleRun(), FormatYAML))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "GOOG", doc.SymbolA)
	require.NotNil(t, doc.SharpeRatio)
	assert.InDelta(t, 1.75, *doc.SharpeRatio, 1e-12)
}

func TestWriteSeriesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSeriesCSV(&buf, sampleRun()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, seriesHeader, records[0])
	assert.Equal(t, []string{"2023-03-01", "100", "200", "13.58", "", "2", "-2", "0", "0", "0"}, records[1])
	assert.Equal(t, "2.25", records[2][4])
	assert.Equal(t, "-1", records[2][7])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

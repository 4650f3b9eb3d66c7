package pairs

import (
	"io"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/gregtusar/pairs/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(config Config) *Analyzer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewAnalyzer(config, logger)
}

func tradingDays(n int) []time.Time {
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.AddDate(0, 0, i)
	}
	return times
}

// randomWalk returns a trending random walk starting at 100.
func randomWalk(rng *rand.Rand, n int) []float64 {
	x := make([]float64, n)
	x[0] = 100
	for i := 1; i < n; i++ {
		x[i] = x[i-1] + 0.05 + rng.NormFloat64()
	}
	return x
}

func TestAnalyzer_IdenticalSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	n := 200
	b := randomWalk(rng, n)
	a := append([]float64(nil), b...)

	res, err := newTestAnalyzer(DefaultConfig()).Run(models.AlignedPair{
		SymbolA: "AAA", SymbolB: "BBB", Times: tradingDays(n), A: a, B: b,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.HedgeRatio, 1e-9)
	for _, p := range res.Series {
		assert.InDelta(t, 0, p.Spread, 1e-8)
		assert.Nil(t, p.ZScore)
		assert.Equal(t, models.PositionFlat, p.Position)
	}
	assert.Equal(t, n-DefaultWindow, res.DegenerateSteps)
	assert.Equal(t, 0.0, res.Summary.TotalProfit)
	assert.False(t, res.Summary.SharpeDefined)
	assert.True(t, math.IsNaN(res.Summary.SharpeRatio))
	assert.Equal(t, models.VerdictUndetermined, res.Stationarity.Verdict)
}

func TestAnalyzer_CointegratedPair(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	n := 500
	b := randomWalk(rng, n)
	a := make([]float64, n)
	var noise float64
	for i := range a {
		noise = 0.5*noise + rng.NormFloat64()
		a[i] = 1.5*b[i] + 10 + noise
	}

	res, err := newTestAnalyzer(DefaultConfig()).Run(models.AlignedPair{
		SymbolA: "AAA", SymbolB: "BBB", Times: tradingDays(n), A: a, B: b,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.5, res.HedgeRatio, 0.05)
	assert.Less(t, res.Stationarity.PValue, 0.05)
	assert.Equal(t, models.VerdictCointegrated, res.Stationarity.Verdict)
	require.Len(t, res.Series, n)

	var longEntries, shortEntries int
	for i := 1; i < n; i++ {
		prev, cur := res.Series[i-1].Position, res.Series[i].Position
		if cur == prev || cur == models.PositionFlat {
			continue
		}
		require.NotNil(t, res.Series[i].ZScore, "entry at %d without a z-score", i)
		z := *res.Series[i].ZScore
		if cur == models.PositionLongSpread {
			longEntries++
			assert.Less(t, z, -DefaultEntryThreshold)
		} else {
			shortEntries++
			assert.Greater(t, z, DefaultEntryThreshold)
		}
	}
	assert.Positive(t, longEntries)
	assert.Positive(t, shortEntries)

	for i := 0; i < DefaultWindow; i++ {
		assert.Nil(t, res.Series[i].ZScore)
		assert.Equal(t, models.PositionFlat, res.Series[i].Position)
	}
	last := res.Series[n-1]
	assert.InDelta(t, res.Summary.TotalProfit, last.CumulativePnL, 1e-12)
	assert.True(t, res.Summary.SharpeDefined)
}

func TestAnalyzer_InputErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	n := 60
	good := randomWalk(rng, n)
	other := randomWalk(rng, n)

	shuffled := tradingDays(n)
	shuffled[10], shuffled[11] = shuffled[11], shuffled[10]

	withNaN := append([]float64(nil), other...)
	withNaN[5] = math.NaN()

	constant := make([]float64, n)
	for i := range constant {
		constant[i] = 50
	}

	tests := []struct {
		name string
		pair models.AlignedPair
		want error
	}{
		{"length mismatch", models.AlignedPair{Times: tradingDays(n), A: good, B: other[:n-1]}, ErrInputAlignment},
		{"unordered timestamps", models.AlignedPair{Times: shuffled, A: good, B: other}, ErrInputAlignment},
		{"non-finite price", models.AlignedPair{Times: tradingDays(n), A: good, B: withNaN}, ErrInputAlignment},
		{"too short", models.AlignedPair{Times: tradingDays(25), A: good[:25], B: other[:25]}, ErrInsufficientData},
		{"constant hedge leg", models.AlignedPair{Times: tradingDays(n), A: good, B: constant}, ErrEstimation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestAnalyzer(DefaultConfig()).Run(tt.pair)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Window = 1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Significance = 1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Thresholds.Entry = 0.2
	assert.Error(t, bad.Validate())
}

func TestConfig_MinObservations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 31, cfg.MinObservations())

	cfg.Window = 5
	assert.Equal(t, 20, cfg.MinObservations())
}

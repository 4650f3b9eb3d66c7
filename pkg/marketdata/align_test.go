package marketdata

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gregtusar/pairs/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestAlign_InnerJoinAndDropNonFinite(t *testing.T) {
	a := models.PriceSeries{Symbol: "A", Points: []models.PricePoint{
		{Time: day(6), Price: 13},
		{Time: day(2), Price: 10},
		{Time: day(3), Price: 11},
		{Time: day(7), Price: math.NaN()},
		{Time: day(8), Price: 14},
	}}
	b := models.PriceSeries{Symbol: "B", Points: []models.PricePoint{
		{Time: day(2).Add(21 * time.Hour), Price: 20},
		{Time: day(6), Price: 23},
		{Time: day(7), Price: 24},
		{Time: day(9), Price: 25},
	}}

	pair, err := Align(a, b)
	require.NoError(t, err)

	assert.Equal(t, "A", pair.SymbolA)
	assert.Equal(t, "B", pair.SymbolB)
	assert.Equal(t, []time.Time{day(2), day(6)}, pair.Times)
	assert.Equal(t, []float64{10, 13}, pair.A)
	assert.Equal(t, []float64{20, 23}, pair.B)
}

func TestAlign_NoOverlap(t *testing.T) {
	a := models.PriceSeries{Symbol: "A", Points: []models.PricePoint{{Time: day(2), Price: 1}}}
	b := models.PriceSeries{Symbol: "B", Points: []models.PricePoint{{Time: day(3), Price: 1}}}

	_, err := Align(a, b)
	assert.ErrorIs(t, err, ErrNoOverlap)
}

type stubProvider map[string]models.PriceSeries

func (s stubProvider) GetDailyHistory(_ context.Context, symbol string, _, _ time.Time) (models.PriceSeries, error) {
	series, ok := s[symbol]
	if !ok {
		return models.PriceSeries{}, ErrNoData
	}
	return series, nil
}

func TestFetchPair(t *testing.T) {
	p := stubProvider{
		"A": {Symbol: "A", Points: []models.PricePoint{{Time: day(2), Price: 1}, {Time: day(3), Price: 2}}},
		"B": {Symbol: "B", Points: []models.PricePoint{{Time: day(3), Price: 5}}},
	}

	pair, err := FetchPair(context.Background(), p, "A", "B", day(1), day(10))
	require.NoError(t, err)
	assert.Equal(t, 1, pair.Len())

	_, err = FetchPair(context.Background(), p, "A", "C", day(1), day(10))
	assert.ErrorIs(t, err, ErrNoData)
}

package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/gregtusar/pairs/pkg/models"
)

var (
	ErrNoData    = errors.New("no price data")
	ErrNoOverlap = errors.New("series share no trading days")
)

// Provider returns one daily closing price per trading day in [start, end).
type Provider interface {
	GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error)
}

// FetchPair downloads both legs and aligns them.
func FetchPair(ctx context.Context, p Provider, symbolA, symbolB string, start, end time.Time) (models.AlignedPair, error) {
	a, err := p.GetDailyHistory(ctx, symbolA, start, end)
	if err != nil {
		return models.AlignedPair{}, err
	}
	b, err := p.GetDailyHistory(ctx, symbolB, start, end)
	if err != nil {
		return models.AlignedPair{}, err
	}
	return Align(a, b)
}

func tradingDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

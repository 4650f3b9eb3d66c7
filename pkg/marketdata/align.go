package marketdata

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gregtusar/pairs/pkg/models"
)

// Align inner-joins two series on trading day and drops rows where either
// price is missing or not finite. A repeated day keeps its last price.
func Align(a, b models.PriceSeries) (models.AlignedPair, error) {
	pricesB := make(map[time.Time]float64, b.Len())
	for _, p := range b.Points {
		pricesB[tradingDay(p.Time)] = p.Price
	}
	pricesA := make(map[time.Time]float64, a.Len())
	for _, p := range a.Points {
		pricesA[tradingDay(p.Time)] = p.Price
	}

	days := make([]time.Time, 0, len(pricesA))
	for day, pa := range pricesA {
		pb, ok := pricesB[day]
		if !ok || !finite(pa) || !finite(pb) {
			continue
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return models.AlignedPair{}, fmt.Errorf("%w: %s and %s", ErrNoOverlap, a.Symbol, b.Symbol)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	pair := models.AlignedPair{
		SymbolA: a.Symbol,
		SymbolB: b.Symbol,
		Times:   days,
		A:       make([]float64, len(days)),
		B:       make([]float64, len(days)),
	}
	for i, day := range days {
		pair.A[i] = pricesA[day]
		pair.B[i] = pricesB[day]
	}
	return pair, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

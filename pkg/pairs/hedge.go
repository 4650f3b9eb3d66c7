package pairs

import (
	"errors"
	"fmt"
	"math"

	"github.com/gregtusar/pairs/pkg/stats"
)

type HedgeEstimate struct {
	Ratio     float64
	Intercept float64
}

// EstimateHedgeRatio regresses a on b with an intercept and returns the
// coefficient on b.
func EstimateHedgeRatio(a, b []float64) (HedgeEstimate, error) {
	if len(a) != len(b) {
		return HedgeEstimate{}, fmt.Errorf("%w: series lengths differ (%d vs %d)", ErrEstimation, len(a), len(b))
	}
	if i := firstNonFinite(a); i >= 0 {
		return HedgeEstimate{}, fmt.Errorf("%w: dependent series has non-finite value at %d", ErrEstimation, i)
	}
	if i := firstNonFinite(b); i >= 0 {
		return HedgeEstimate{}, fmt.Errorf("%w: independent series has non-finite value at %d", ErrEstimation, i)
	}

	intercept, slope, err := stats.LinearRegression(b, a)
	if err != nil {
		if errors.Is(err, stats.ErrSingular) {
			return HedgeEstimate{}, fmt.Errorf("%w: independent series has zero variance", ErrEstimation)
		}
		return HedgeEstimate{}, fmt.Errorf("%w: %v", ErrEstimation, err)
	}
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return HedgeEstimate{}, fmt.Errorf("%w: hedge ratio is not finite", ErrEstimation)
	}

	return HedgeEstimate{Ratio: slope, Intercept: intercept}, nil
}

func firstNonFinite(x []float64) int {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}

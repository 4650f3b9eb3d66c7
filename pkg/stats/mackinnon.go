package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// MacKinnon (1994) response-surface coefficients for the single-series,
// constant-only ADF regression.
var (
	tauMaxC  = 2.74
	tauMinC  = -18.83
	tauStarC = -1.61

	tauSmallPC = []float64{2.1659, 1.4412, 0.038269}
	tauLargePC = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// MacKinnonPValue returns the approximate p-value of an ADF statistic for a
// regression with a constant and no trend.
func MacKinnonPValue(stat float64) float64 {
	switch {
	case math.IsNaN(stat):
		return math.NaN()
	case stat > tauMaxC:
		return 1
	case stat < tauMinC:
		return 0
	}

	coef := tauLargePC
	if stat <= tauStarC {
		coef = tauSmallPC
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// polyval evaluates c[0] + c[1]*x + c[2]*x^2 + ...
func polyval(c []float64, x float64) float64 {
	var v float64
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

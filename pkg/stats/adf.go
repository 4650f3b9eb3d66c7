package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MinADFObservations is the smallest series length ADF accepts.
const MinADFObservations = 20

// ADFResult holds the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic float64
	PValue    float64
	UsedLag   int
	NObs      int
}

// ADF runs an augmented Dickey-Fuller unit-root test with a constant term.
// The number of lagged differences is chosen by AIC between 0 and maxLag;
// a negative maxLag selects the Schwert bound 12*(nobs/100)^(1/4).
func ADF(x []float64, maxLag int) (ADFResult, error) {
	if len(x) < MinADFObservations {
		return ADFResult{}, fmt.Errorf("%w: ADF needs at least %d observations, got %d",
			ErrInsufficientData, MinADFObservations, len(x))
	}

	nobs := len(x) - 1
	if maxLag < 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(nobs)/100, 0.25)))
	}
	// one constant term
	if limit := nobs/2 - 2; maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 {
		return ADFResult{}, fmt.Errorf("%w: sample too short for ADF regression", ErrInsufficientData)
	}

	diff := make([]float64, nobs)
	for i := range diff {
		diff[i] = x[i+1] - x[i]
	}

	bestLag, err := selectLagAIC(x, diff, maxLag)
	if err != nil {
		return ADFResult{}, err
	}

	design, y := adfDesign(x, diff, bestLag, bestLag, false)
	fit, err := LeastSquares(design, y)
	if err != nil {
		return ADFResult{}, err
	}

	statistic := fit.TValue(0)
	if math.IsNaN(statistic) || math.IsInf(statistic, 0) {
		return ADFResult{}, fmt.Errorf("%w: ADF statistic is not finite", ErrSingular)
	}

	return ADFResult{
		Statistic: statistic,
		PValue:    MacKinnonPValue(statistic),
		UsedLag:   bestLag,
		NObs:      fit.NObs,
	}, nil
}

// selectLagAIC fits every lag count on the common sample trimmed by maxLag
// and returns the one with the lowest AIC; ties go to the shorter lag.
func selectLagAIC(x, diff []float64, maxLag int) (int, error) {
	bestLag := 0
	bestAIC := math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		design, y := adfDesign(x, diff, lag, maxLag, true)
		fit, err := LeastSquares(design, y)
		if err != nil {
			return 0, err
		}
		if aic := fit.AIC(); aic < bestAIC || lag == 0 {
			bestAIC = aic
			bestLag = lag
		}
	}
	return bestLag, nil
}

// adfDesign builds the regression of diff[t] on x[t] and diff[t-1..t-lag]
// for t in [trim, len(diff)). The constant goes first when constFirst is set
// and last otherwise; the level term is always the first non-constant column.
func adfDesign(x, diff []float64, lag, trim int, constFirst bool) (*mat.Dense, []float64) {
	rows := len(diff) - trim
	cols := lag + 2
	design := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)

	offset := 0
	constCol := cols - 1
	if constFirst {
		offset = 1
		constCol = 0
	}

	for r := 0; r < rows; r++ {
		t := trim + r
		y[r] = diff[t]
		design.Set(r, constCol, 1)
		design.Set(r, offset, x[t])
		for j := 1; j <= lag; j++ {
			design.Set(r, offset+j, diff[t-j])
		}
	}
	return design, y
}

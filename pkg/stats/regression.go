// Package stats provides the regression and time-series statistics used by
// the pairs pipeline.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearRegression fits y = intercept + slope*x by ordinary least squares.
func LinearRegression(x, y []float64) (intercept, slope float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("%w: x has %d values, y has %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) < 2 {
		return 0, 0, fmt.Errorf("%w: need at least 2 observations, got %d", ErrInsufficientData, len(x))
	}
	if isConstant(x) || stat.Variance(x, nil) <= 0 {
		return 0, 0, fmt.Errorf("%w: regressor has zero variance", ErrSingular)
	}

	intercept, slope = stat.LinearRegression(x, y, nil, false)
	return intercept, slope, nil
}

// OLSFit is the result of a multiple regression solved by LeastSquares.
type OLSFit struct {
	Coef   []float64
	StdErr []float64
	SSR    float64
	NObs   int
	K      int
}

// TValue returns the t statistic of coefficient i.
func (f *OLSFit) TValue(i int) float64 {
	return f.Coef[i] / f.StdErr[i]
}

// LogLikelihood is the Gaussian log-likelihood evaluated at the fitted
// residual variance.
func (f *OLSFit) LogLikelihood() float64 {
	n := float64(f.NObs)
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(f.SSR/n) + 1)
}

// AIC is -2*llf + 2*k where k counts every regressor including the constant.
func (f *OLSFit) AIC() float64 {
	return -2*f.LogLikelihood() + 2*float64(f.K)
}

// LeastSquares solves y = X*b with a QR factorization of X.
func LeastSquares(x *mat.Dense, y []float64) (*OLSFit, error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("%w: design has %d rows, y has %d", ErrLengthMismatch, n, len(y))
	}
	if n <= k {
		return nil, fmt.Errorf("%w: %d rows for %d regressors", ErrInsufficientData, n, k)
	}

	yVec := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(x)
	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, yVec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &coef)
	var resid mat.VecDense
	resid.SubVec(yVec, &fitted)
	ssr := mat.Dot(&resid, &resid)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	sigma2 := ssr / float64(n-k)
	fit := &OLSFit{
		Coef:   make([]float64, k),
		StdErr: make([]float64, k),
		SSR:    ssr,
		NObs:   n,
		K:      k,
	}
	for i := 0; i < k; i++ {
		fit.Coef[i] = coef.AtVec(i)
		fit.StdErr[i] = math.Sqrt(sigma2 * xtxInv.At(i, i))
	}
	return fit, nil
}

// MeanStdDev returns the mean and the sample (n-1) standard deviation.
func MeanStdDev(x []float64) (mean, std float64) {
	return stat.MeanStdDev(x, nil)
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

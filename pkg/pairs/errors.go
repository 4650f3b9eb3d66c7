package pairs

import "errors"

var (
	// ErrInputAlignment is returned when the two price series do not share
	// one valid index
	ErrInputAlignment = errors.New("input alignment error")

	// ErrEstimation is returned when the hedge ratio regression is degenerate
	ErrEstimation = errors.New("estimation error")

	// ErrInsufficientData is returned when the sample is too small for the
	// stationarity test or for one full rolling window
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNumericDegeneracy marks a statistic that is undefined for the given
	// data. The pipeline recovers from it with a sentinel value.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

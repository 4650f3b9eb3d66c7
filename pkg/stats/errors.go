package stats

import "errors"

var (
	// ErrLengthMismatch is returned when paired inputs differ in length
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrInsufficientData is returned when there are too few observations
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSingular is returned when a design matrix is rank deficient or a
	// regressor has no variance
	ErrSingular = errors.New("singular design matrix")
)

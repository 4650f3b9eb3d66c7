package pairs

import (
	"fmt"
)

// BuildSpread returns a[t] - hedgeRatio*b[t] for every t.
func BuildSpread(a, b []float64, hedgeRatio float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: series lengths differ (%d vs %d)", ErrInputAlignment, len(a), len(b))
	}

	spread := make([]float64, len(a))
	for t := range a {
		spread[t] = a[t] - hedgeRatio*b[t]
	}
	return spread, nil
}

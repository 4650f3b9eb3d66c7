package pairs

import (
	"fmt"
	"math"

	"github.com/gregtusar/pairs/pkg/models"
	"github.com/gregtusar/pairs/pkg/stats"
)

const (
	DefaultWindow         = 30
	DefaultEntryThreshold = 2.0
	DefaultExitThreshold  = 0.5

	// rolling windows with a smaller standard deviation produce no z-score
	degenerateStd = 1e-10
)

// Thresholds configures the hysteresis band. |z| above Entry opens a
// position, |z| below Exit closes it, and anything between holds.
type Thresholds struct {
	Entry float64
	Exit  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Entry: DefaultEntryThreshold, Exit: DefaultExitThreshold}
}

func (th Thresholds) Validate() error {
	if th.Exit < 0 {
		return fmt.Errorf("exit threshold must be non-negative, got %v", th.Exit)
	}
	if th.Entry <= th.Exit {
		return fmt.Errorf("entry threshold %v must exceed exit threshold %v", th.Entry, th.Exit)
	}
	return nil
}

// Next is one transition of the position state machine. A non-finite z
// carries the previous state forward.
func (th Thresholds) Next(prev models.Position, z float64) models.Position {
	switch {
	case math.IsNaN(z) || math.IsInf(z, 0):
		return prev
	case z > th.Entry:
		return models.PositionShortSpread
	case z < -th.Entry:
		return models.PositionLongSpread
	case math.Abs(z) < th.Exit:
		return models.PositionFlat
	default:
		return prev
	}
}

// RollingZScore computes (spread[t]-mean)/std over spread[t-window+1..t]
// using the sample standard deviation. Entries before index window, and
// entries whose window is flat, are NaN. The second return value counts the
// flat windows.
func RollingZScore(spread []float64, window int) ([]float64, int, error) {
	if window < 2 {
		return nil, 0, fmt.Errorf("rolling window must be at least 2, got %d", window)
	}
	if len(spread) <= window {
		return nil, 0, fmt.Errorf("%w: rolling window %d needs more than %d observations",
			ErrInsufficientData, window, len(spread))
	}

	z := make([]float64, len(spread))
	degenerate := 0
	for t := range z {
		if t < window {
			z[t] = math.NaN()
			continue
		}
		mean, std := stats.MeanStdDev(spread[t-window+1 : t+1])
		if std < degenerateStd || math.IsNaN(std) {
			z[t] = math.NaN()
			degenerate++
			continue
		}
		z[t] = (spread[t] - mean) / std
	}
	return z, degenerate, nil
}

// GeneratePositions folds Next over z starting from a flat book.
func GeneratePositions(z []float64, th Thresholds) []models.Position {
	positions := make([]models.Position, len(z))
	state := models.PositionFlat
	for t, v := range z {
		state = th.Next(state, v)
		positions[t] = state
	}
	return positions
}

package pairs

import (
	"errors"
	"fmt"

	"github.com/gregtusar/pairs/pkg/models"
	"github.com/gregtusar/pairs/pkg/stats"
)

const DefaultSignificance = 0.05

// CheckStationarity runs the ADF test on the spread. The verdict is
// advisory; it never stops the signal or backtest stages.
func CheckStationarity(spread []float64, significance float64) (models.StationarityResult, error) {
	if len(spread) < stats.MinADFObservations {
		return models.StationarityResult{}, fmt.Errorf("%w: stationarity test needs %d observations, got %d",
			ErrInsufficientData, stats.MinADFObservations, len(spread))
	}
	if _, std := stats.MeanStdDev(spread); std < degenerateStd {
		return models.StationarityResult{}, fmt.Errorf("%w: spread is constant", ErrNumericDegeneracy)
	}

	res, err := stats.ADF(spread, -1)
	if err != nil {
		switch {
		case errors.Is(err, stats.ErrInsufficientData):
			return models.StationarityResult{}, fmt.Errorf("%w: %v", ErrInsufficientData, err)
		case errors.Is(err, stats.ErrSingular):
			return models.StationarityResult{}, fmt.Errorf("%w: %v", ErrNumericDegeneracy, err)
		default:
			return models.StationarityResult{}, err
		}
	}

	return models.StationarityResult{
		Statistic: res.Statistic,
		PValue:    res.PValue,
		UsedLag:   res.UsedLag,
		NObs:      res.NObs,
		Verdict:   VerdictFor(res.PValue, significance),
	}, nil
}

// VerdictFor applies the decision rule p < significance.
func VerdictFor(pValue, significance float64) models.Verdict {
	if pValue < significance {
		return models.VerdictCointegrated
	}
	return models.VerdictNotCointegrated
}

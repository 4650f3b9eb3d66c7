package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gregtusar/pairs/pkg/models"
)

var seriesHeader = []string{
	"date", "price_a", "price_b", "spread", "z_score",
	"upper_band", "lower_band", "position", "pnl", "cumulative_pnl",
}

// WriteSeriesCSV exports one row per aligned step. The band columns carry
// the entry thresholds so a chart can draw them as reference lines. Empty
// z_score cells mark warm-up and degenerate windows.
func WriteSeriesCSV(w io.Writer, r *models.RunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return err
	}

	upper := formatCell(r.Params.EntryThreshold)
	lower := formatCell(-r.Params.EntryThreshold)
	for _, p := range r.Series {
		z := ""
		if p.ZScore != nil {
			z = formatCell(*p.ZScore)
		}
		record := []string{
			p.Time.Format(time.DateOnly),
			formatCell(p.PriceA),
			formatCell(p.PriceB),
			formatCell(p.Spread),
			z,
			upper,
			lower,
			strconv.Itoa(int(p.Position)),
			formatCell(p.PnL),
			formatCell(p.CumulativePnL),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %s: %w", p.Time.Format(time.DateOnly), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteSeriesJSON(w io.Writer, r *models.RunResult) error {
	return json.NewEncoder(w).Encode(r.Series)
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

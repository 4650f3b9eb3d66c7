package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gregtusar/pairs/pkg/models"
)

// CSVProvider reads <dir>/<SYMBOL>.csv files with a date column and an
// adjusted close or close column.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}

	f, err := os.Open(filepath.Join(p.dir, symbol+".csv"))
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("failed to open price file for %s: %w", symbol, err)
	}
	defer f.Close()

	series, err := ReadCSV(f, symbol)
	if err != nil {
		return models.PriceSeries{}, err
	}

	filtered := models.PriceSeries{Symbol: symbol}
	for _, pt := range series.Points {
		if pt.Time.Before(start) || !pt.Time.Before(end) {
			continue
		}
		filtered.Points = append(filtered.Points, pt)
	}
	if filtered.Len() == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: %s between %s and %s",
			ErrNoData, symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return filtered, nil
}

// ReadCSV parses a price history. Rows with an empty or "null" price are
// skipped.
func ReadCSV(r io.Reader, symbol string) (models.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("failed to read header for %s: %w", symbol, err)
	}
	dateCol, priceCol := -1, -1
	closeCol := -1
	for i, name := range header {
		switch normalizeColumn(name) {
		case "date":
			dateCol = i
		case "adjclose":
			priceCol = i
		case "close":
			closeCol = i
		}
	}
	if priceCol < 0 {
		priceCol = closeCol
	}
	if dateCol < 0 || priceCol < 0 {
		return models.PriceSeries{}, fmt.Errorf("price file for %s needs date and close columns", symbol)
	}

	series := models.PriceSeries{Symbol: symbol}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("failed to read %s line %d: %w", symbol, line, err)
		}

		raw := strings.TrimSpace(record[priceCol])
		if raw == "" || strings.EqualFold(raw, "null") {
			continue
		}
		day, err := time.Parse(time.DateOnly, strings.TrimSpace(record[dateCol]))
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("bad date in %s line %d: %w", symbol, line, err)
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("bad price in %s line %d: %w", symbol, line, err)
		}
		series.Points = append(series.Points, models.PricePoint{Time: day, Price: price})
	}
	return series, nil
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "_", "").Replace(name)
}

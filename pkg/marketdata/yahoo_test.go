package marketdata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "GOOG", "currency": "USD", "gmtoffset": -18000},
      "timestamp": [1577975400, 1578061800, 1578321000, 1578407400],
      "indicators": {
        "quote": [{"close": [68.36, 67.90, null, 69.46]}],
        "adjclose": [{"adjclose": [68.10, 67.64, null, 69.20]}]
      }
    }],
    "error": null
  }
}`

func newTestClient(url string) *YahooClient {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewYahooClient(YahooOptions{BaseURL: url, APIKey: "k-123", RequestsPerSecond: 100}, logger)
}

func TestYahooClient_GetDailyHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/GOOG", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1577836800", r.URL.Query().Get("period1"))
		assert.Equal(t, "k-123", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chartFixture))
	}))
	defer server.Close()

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)

	series, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "GOOG", start, end)
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, "GOOG", series.Symbol)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), series.Points[0].Time)
	assert.Equal(t, 68.10, series.Points[0].Price)
	assert.Equal(t, time.Date(2020, 1, 7, 0, 0, 0, 0, time.UTC), series.Points[2].Time)
	assert.Equal(t, 69.20, series.Points[2].Price)
}

func TestYahooClient_ChartError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "NOPE", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol may be delisted")
}

func TestYahooClient_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "GOOG", time.Now().AddDate(0, -1, 0), time.Now())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestParseChart_FallsBackToClose(t *testing.T) {
	close1, close2 := 10.0, 11.0
	var result chartResult
	result.Timestamp = []int64{1577975400, 1578061800}
	result.Indicators.Quote = append(result.Indicators.Quote, struct {
		Close []*float64 `json:"close"`
	}{Close: []*float64{&close1, &close2}})

	series, err := parseChart("MSFT", result, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, 11.0, series.Points[1].Price)
}

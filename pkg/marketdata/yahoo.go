package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gregtusar/pairs/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

type YahooOptions struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Timeout           time.Duration
	RetryCount        int
}

// YahooClient reads daily bars from the Yahoo Finance chart endpoint.
type YahooClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func NewYahooClient(opts YahooOptions, logger *logrus.Logger) *YahooClient {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "pairs-backtester/1.0")
	if opts.APIKey != "" {
		client.SetHeader("X-API-Key", opts.APIKey)
	}

	return &YahooClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// GetDailyHistory returns adjusted closes when the endpoint provides them
// and plain closes otherwise. Bars with a null price are skipped.
func (c *YahooClient) GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.PriceSeries{}, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":              strconv.FormatInt(start.Unix(), 10),
			"period2":              strconv.FormatInt(end.Unix(), 10),
			"interval":             "1d",
			"events":               "div,split",
			"includeAdjustedClose": "true",
		}).
		SetResult(&chartResponse{}).
		SetError(&chartResponse{}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("failed to fetch %s: %w", symbol, err)
	}

	if resp.IsError() {
		if body, ok := resp.Error().(*chartResponse); ok && body.Chart.Error != nil {
			return models.PriceSeries{}, fmt.Errorf("failed to fetch %s: %s: %s",
				symbol, body.Chart.Error.Code, body.Chart.Error.Description)
		}
		return models.PriceSeries{}, fmt.Errorf("failed to fetch %s: http %d", symbol, resp.StatusCode())
	}

	body, ok := resp.Result().(*chartResponse)
	if !ok || len(body.Chart.Result) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	series, err := parseChart(symbol, body.Chart.Result[0], end)
	if err != nil {
		return models.PriceSeries{}, err
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"bars":   series.Len(),
	}).Debug("Fetched daily history")
	return series, nil
}

func parseChart(symbol string, result chartResult, end time.Time) (models.PriceSeries, error) {
	var prices []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == len(result.Timestamp) {
		prices = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 && len(result.Indicators.Quote[0].Close) == len(result.Timestamp) {
		prices = result.Indicators.Quote[0].Close
	} else {
		return models.PriceSeries{}, fmt.Errorf("%w: %s has no close prices", ErrNoData, symbol)
	}

	series := models.PriceSeries{Symbol: symbol}
	for i, ts := range result.Timestamp {
		if prices[i] == nil {
			continue
		}
		day := tradingDay(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		if !day.Before(end) {
			continue
		}
		series.Points = append(series.Points, models.PricePoint{Time: day, Price: *prices[i]})
	}
	if series.Len() == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return series, nil
}

package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"FxBias/internal/domain/models"
	"FxBias/internal/domain/service"
	"FxBias/internal/service/metrics"
	pkghttp "FxBias/pkg/http"
	xlogger "FxBias/pkg/logger"
)

const DefaultBaseURL = "https://www.alphavantage.co/query"

// APIError is an error payload returned with HTTP 200, such as a bad symbol
// or an exhausted quota.
type APIError struct {
	Field   string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpha vantage %s: %s", e.Field, e.Message)
}

type request struct {
	params    url.Values
	seriesKey string // "" for TREASURY_YIELD's data array
}

var requests = map[models.SeriesKey]request{
	models.SeriesEquity: {
		params:    url.Values{"function": {"TIME_SERIES_DAILY"}, "symbol": {"SPY"}, "outputsize": {"compact"}},
		seriesKey: "Time Series (Daily)",
	},
	models.SeriesVolatility: {
		params:    url.Values{"function": {"TIME_SERIES_DAILY"}, "symbol": {"VIXY"}, "outputsize": {"compact"}},
		seriesKey: "Time Series (Daily)",
	},
	models.SeriesRiskFX: {
		params:    url.Values{"function": {"FX_DAILY"}, "from_symbol": {"AUD"}, "to_symbol": {"JPY"}, "outputsize": {"compact"}},
		seriesKey: "Time Series FX (Daily)",
	},
	models.SeriesLongYield: {
		params: url.Values{"function": {"TREASURY_YIELD"}, "interval": {"daily"}, "maturity": {"10year"}},
	},
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithRequestsPerMinute throttles calls client side; 0 disables throttling.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		} else {
			c.limiter = nil
		}
	}
}

func WithLogger(l *xlogger.Logger) Option { return func(c *Client) { c.l = l } }

// Client reads the daily market series behind the risk assessment.
type Client struct {
	http    *pkghttp.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	l       *xlogger.Logger
}

var _ service.SeriesFetcher = (*Client)(nil)

func NewClient(httpClient *pkghttp.Client, apiKey string, opts ...Option) *Client {
	c := &Client{http: httpClient, apiKey: apiKey, baseURL: DefaultBaseURL, l: xlogger.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchSeries returns key's series ordered oldest first.
func (c *Client) FetchSeries(ctx context.Context, key models.SeriesKey) (points []models.DataPoint, err error) {
	req, ok := requests[key]
	if !ok {
		return nil, fmt.Errorf("unknown series %q", key)
	}
	if c.apiKey == "" {
		return nil, errors.New("alpha vantage api key is not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("alpha vantage throttle: %w", err)
		}
	}

	start := time.Now()
	defer func() { metrics.Observe("alphavantage", string(key), start, err) }()

	q := url.Values{}
	for k, v := range req.params {
		q[k] = v
	}
	q.Set("apikey", c.apiKey)

	body, err := c.http.Fetch(ctx, &pkghttp.RequestOptions{URL: c.baseURL, Query: q})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if err := payloadError(payload); err != nil {
		return nil, err
	}

	if req.seriesKey == "" {
		points, err = parseDataArray(payload["data"])
	} else {
		points, err = parseTimeSeries(payload[req.seriesKey])
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	c.l.Debug("series fetched", xlogger.String("series", string(key)), xlogger.Int("points", len(points)))
	return points, nil
}

func payloadError(payload map[string]json.RawMessage) error {
	for _, field := range []string{"Error Message", "Information", "Note"} {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		var msg string
		if json.Unmarshal(raw, &msg) != nil {
			msg = string(raw)
		}
		return &APIError{Field: field, Message: msg}
	}
	return nil
}

func parseTimeSeries(raw json.RawMessage) ([]models.DataPoint, error) {
	if raw == nil {
		return nil, errors.New("time series missing from response")
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, err
	}
	points := make([]models.DataPoint, 0, len(series))
	for date, bar := range series {
		v, err := strconv.ParseFloat(bar["4. close"], 64)
		if err != nil {
			continue
		}
		points = append(points, models.DataPoint{Date: date, Value: v})
	}
	return points, nil
}

// parseDataArray reads [{date, value}] rows. Missing observations are
// reported as "." and skipped.
func parseDataArray(raw json.RawMessage) ([]models.DataPoint, error) {
	if raw == nil {
		return nil, errors.New("data missing from response")
	}
	var rows []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	points := make([]models.DataPoint, 0, len(rows))
	for _, r := range rows {
		v, err := strconv.ParseFloat(r.Value, 64)
		if err != nil {
			continue
		}
		points = append(points, models.DataPoint{Date: r.Date, Value: v})
	}
	return points, nil
}

package collector

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"CrossSentinel/internal/model"
)

// DefaultFyersBaseURL is the Fyers v3 data API root.
const DefaultFyersBaseURL = "https://api-t1.fyers.in/data"

// FyersFetcher implements Fetcher against the Fyers history API. The access
// token carries the client id as a "clientID:token" pair and is sent as-is
// in the Authorization header.
type FyersFetcher struct {
	client      *resty.Client
	accessToken string
	loc         *time.Location

	// now is swapped in tests to pin the requested range.
	now func() time.Time
}

// NewFyersFetcher creates a fetcher for the given base URL and access token.
// Bars are converted into loc before being returned.
func NewFyersFetcher(baseURL, accessToken, proxyURL string, loc *time.Location) *FyersFetcher {
	if baseURL == "" {
		baseURL = DefaultFyersBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Authorization", accessToken)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &FyersFetcher{
		client:      client,
		accessToken: accessToken,
		loc:         loc,
		now:         time.Now,
	}
}

func (f *FyersFetcher) Name() string { return "fyers" }

// historyResponse is the Fyers history payload. Candles are
// [timestamp, open, high, low, close, volume] rows.
type historyResponse struct {
	S       string      `json:"s"`
	Message string      `json:"message"`
	Candles [][]float64 `json:"candles"`
}

// FetchBars requests the last count candles of the given resolution. The
// range is computed backwards from now, matching count * resolution minutes.
func (f *FyersFetcher) FetchBars(symbol string, resolutionMin, count int) ([]model.OHLCV, error) {
	end := f.now().Unix()
	start := end - int64(count)*int64(resolutionMin)*60

	var out historyResponse
	resp, err := f.client.R().
		SetQueryParams(map[string]string{
			"symbol":      symbol,
			"resolution":  strconv.Itoa(resolutionMin),
			"date_format": "0",
			"range_from":  strconv.FormatInt(start, 10),
			"range_to":    strconv.FormatInt(end, 10),
			"cont_flag":   "1",
		}).
		SetResult(&out).
		Get("/history")
	if err != nil {
		return nil, errors.Wrapf(err, "fyers history %s %dm", symbol, resolutionMin)
	}
	if resp.IsError() {
		return nil, errors.Errorf("fyers history %s %dm: status %d, body: %s",
			symbol, resolutionMin, resp.StatusCode(), resp.String())
	}
	if out.S != "ok" {
		return nil, errors.Errorf("fyers history %s %dm: s=%q message=%q", symbol, resolutionMin, out.S, out.Message)
	}

	bars := make([]model.OHLCV, 0, len(out.Candles))
	for _, c := range out.Candles {
		if len(c) < 6 {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(int64(c[0]), 0).In(f.loc),
			Open:   c[1],
			High:   c[2],
			Low:    c[3],
			Close:  c[4],
			Volume: c[5],
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fyers history %s %dm: no candles returned", symbol, resolutionMin)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

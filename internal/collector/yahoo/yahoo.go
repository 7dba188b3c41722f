package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // exchange time zones in minimal images

	"github.com/quantmath/quantmath/internal/core"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	chartPath      = "/v8/finance/chart/"

	// TimestampLayout formats candle labels in the exchange's local time.
	TimestampLayout = "2006-01-02 15:04:05-07:00"
)

// validSymbol matches tickers like AAPL, BTC-USD, EURUSD=X, GC=F, ^GSPC, 0700.HK
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9][A-Za-z0-9.\-=]{0,19}$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Config holds Yahoo client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Yahoo implements the Yahoo Finance chart collector
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo collector
func New(cfg Config) *Yahoo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Yahoo{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchHistory fetches candles for the lookback period at the given interval.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol, period, interval string) ([]core.Candle, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrBadRequest, err)
	}

	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", interval)
	params.Set("includePrePost", "false")
	endpoint := y.baseURL + chartPath + url.PathEscape(y.toYahooSymbol(symbol)) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; quantmath)")
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("reading response body: %w", err))
	}

	// Yahoo reports unknown symbols as 404 with a chart.error body.
	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() && desc.String() != "" {
		if resp.StatusCode == http.StatusNotFound {
			return nil, core.WrapError(core.ErrNoData, fmt.Errorf("%s: %s", symbol, desc.String()))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("yahoo error: %s", desc.String()))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	candles, err := ParseChart(body)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}
	return candles, nil
}

// ParseChart converts a chart API response body into candles. Rows with any
// null price or volume are skipped, as Yahoo emits them for halted sessions.
func ParseChart(body []byte) ([]core.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, core.WrapError(core.ErrCollectorFailed, errors.New("response is not valid json"))
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, nil
	}

	loc := time.UTC
	if tz := result.Get("meta.exchangeTimezoneName").String(); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	open := quote.Get("open").Array()
	high := quote.Get("high").Array()
	low := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volume := quote.Get("volume").Array()

	candles := make([]core.Candle, 0, len(timestamps))
	for i, ts := range timestamps {
		row := []gjson.Result{at(open, i), at(high, i), at(low, i), at(closes, i), at(volume, i)}
		if !allNumbers(row) {
			continue
		}
		candles = append(candles, core.Candle{
			Timestamp: time.Unix(ts.Int(), 0).In(loc).Format(TimestampLayout),
			Open:      row[0].Float(),
			High:      row[1].Float(),
			Low:       row[2].Float(),
			Close:     row[3].Float(),
			Volume:    row[4].Float(),
		})
	}
	return candles, nil
}

func at(values []gjson.Result, i int) gjson.Result {
	if i < len(values) {
		return values[i]
	}
	return gjson.Result{}
}

func allNumbers(values []gjson.Result) bool {
	for _, v := range values {
		if v.Type != gjson.Number {
			return false
		}
	}
	return true
}

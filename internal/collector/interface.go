package collector

import (
	"context"

	"github.com/quantmath/quantmath/internal/core"
)

// Collector fetches historical candles from a market data source.
type Collector interface {
	Name() string

	// FetchHistory returns candles for symbol over the lookback period
	// (see Periods), sampled at interval, oldest first.
	FetchHistory(ctx context.Context, symbol, period, interval string) ([]core.Candle, error)
}

// FetchRecorder receives fetch outcomes, typically for metrics.
type FetchRecorder interface {
	RecordFetch(collector string, err error)
}

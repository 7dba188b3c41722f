// Package synthetic generates random-walk candles for smoke tests and demos.
package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/quantmath/quantmath/internal/collector"
	"github.com/quantmath/quantmath/internal/core"
	"github.com/shopspring/decimal"
)

// MaxCandles caps one generated series.
const MaxCandles = 10000

// Walk parameters: each step moves the price by U(StepLow, StepHigh).
const (
	StepLow  = -2.0
	StepHigh = 2.5

	minPrice = 0.01
)

// Config seeds the generator. Seed 0 picks a time-based seed.
type Config struct {
	Seed       int64
	StartPrice float64
}

// Synthetic is a collector backed by a seeded random walk.
type Synthetic struct {
	mu    sync.Mutex
	rng   *rand.Rand
	start float64
	now   func() time.Time
}

// New creates a synthetic collector.
func New(cfg Config) *Synthetic {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	start := cfg.StartPrice
	if start <= 0 {
		start = 100
	}
	return &Synthetic{
		rng:   rand.New(rand.NewSource(seed)),
		start: start,
		now:   time.Now,
	}
}

func (s *Synthetic) Name() string {
	return "synthetic"
}

// FetchHistory generates one candle per interval across the lookback period,
// ending now. The symbol only labels the request.
func (s *Synthetic) FetchHistory(ctx context.Context, symbol, period, interval string) ([]core.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	step, err := collector.IntervalDuration(interval)
	if err != nil {
		return nil, core.WrapError(core.ErrBadRequest, err)
	}
	end := s.now().UTC().Truncate(step)
	begin, err := collector.PeriodStart(period, end)
	if err != nil {
		return nil, core.WrapError(core.ErrBadRequest, err)
	}

	n := int(end.Sub(begin) / step)
	if n < 1 {
		n = 1
	}
	if n > MaxCandles {
		n = MaxCandles
	}
	return s.Generate(n, step, end), nil
}

// Generate returns n candles spaced step apart, the last stamped at end.
func (s *Synthetic) Generate(n int, step time.Duration, end time.Time) []core.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	candles := make([]core.Candle, n)
	price := s.start
	first := end.Add(-time.Duration(n-1) * step)

	for i := range candles {
		price += s.uniform(StepLow, StepHigh)
		if price < minPrice {
			price = minPrice
		}
		candles[i] = core.Candle{
			Timestamp: first.Add(time.Duration(i) * step).Format(time.DateTime),
			Open:      round2(price),
			High:      round2(price + s.uniform(0.1, 1.0)),
			Low:       round2(price - s.uniform(0.1, 1.0)),
			Close:     round2(price + s.uniform(-0.5, 0.5)),
			Volume:    float64(100 + s.rng.Intn(4901)),
		}
	}
	return candles
}

func (s *Synthetic) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// String describes the generator for logs.
func (s *Synthetic) String() string {
	return fmt.Sprintf("synthetic(start=%g)", s.start)
}

package synthetic

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/quantmath/quantmath/internal/collector"
	"github.com/quantmath/quantmath/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(s *Synthetic) {
	s.now = func() time.Time { return time.Date(2024, 3, 15, 12, 7, 0, 0, time.UTC) }
}

func TestSynthetic_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Synthetic)(nil)
}

func TestGenerate_Shape(t *testing.T) {
	s := New(Config{Seed: 42})
	end := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	candles := s.Generate(100, 15*time.Minute, end)
	require.Len(t, candles, 100)

	assert.Equal(t, "2024-01-01 10:00:00", candles[99].Timestamp)
	assert.Equal(t, "2024-01-01 09:45:00", candles[98].Timestamp)

	for i, c := range candles {
		assert.NoError(t, c.Validate(), "candle %d", i)
		assert.GreaterOrEqual(t, c.Volume, 100.0)
		assert.LessOrEqual(t, c.Volume, 5000.0)
		assert.Greater(t, c.High, c.Open, "candle %d", i)
		assert.Less(t, c.Low, c.Open, "candle %d", i)
		assert.Equal(t, math.Round(c.Close*100)/100, c.Close, "close is rounded to cents")
	}
}

func TestGenerate_StepBounds(t *testing.T) {
	s := New(Config{Seed: 7, StartPrice: 1000})
	candles := s.Generate(500, time.Minute, time.Now())

	prev := 1000.0
	for i, c := range candles {
		// open is the rounded walk price
		delta := c.Open - prev
		assert.GreaterOrEqual(t, delta, StepLow-0.01, "step %d", i)
		assert.LessOrEqual(t, delta, StepHigh+0.01, "step %d", i)
		prev = c.Open
	}
}

func TestGenerate_SeedIsReproducible(t *testing.T) {
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := New(Config{Seed: 99}).Generate(60, time.Hour, end)
	b := New(Config{Seed: 99}).Generate(60, time.Hour, end)
	c := New(Config{Seed: 100}).Generate(60, time.Hour, end)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFetchHistory_CandleCount(t *testing.T) {
	tests := []struct {
		period   string
		interval string
		want     int
	}{
		{"1d", "15m", 96},
		{"5d", "1h", 120},
		{"1d", "1m", 1440},
		{"1y", "1wk", 52},
	}

	for _, tt := range tests {
		t.Run(tt.period+"/"+tt.interval, func(t *testing.T) {
			s := New(Config{Seed: 1})
			fixedClock(s)

			candles, err := s.FetchHistory(context.Background(), "BTC-USD", tt.period, tt.interval)
			require.NoError(t, err)
			assert.Len(t, candles, tt.want)
		})
	}
}

func TestFetchHistory_Errors(t *testing.T) {
	s := New(Config{Seed: 1})

	_, err := s.FetchHistory(context.Background(), "X", "1d", "3m")
	assert.True(t, errors.Is(err, core.ErrBadRequest))

	_, err = s.FetchHistory(context.Background(), "X", "2y", "1d")
	assert.True(t, errors.Is(err, core.ErrBadRequest))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.FetchHistory(ctx, "X", "1d", "15m")
	assert.ErrorIs(t, err, context.Canceled)
}

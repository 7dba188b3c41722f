package indicator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/quantmath/quantmath/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomWalk(n int, seed int64) []core.Candle {
	rng := rand.New(rand.NewSource(seed))
	candles := make([]core.Candle, n)
	price := 100.0
	for i := range candles {
		price += rng.Float64()*4.5 - 2
		candles[i] = core.Candle{
			Timestamp: "t",
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	return candles
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)
	return e
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 14, cfg.RSIPeriod)
	assert.Equal(t, 12, cfg.MACDFast)
	assert.Equal(t, 26, cfg.MACDSlow)
	assert.Equal(t, 9, cfg.MACDSignal)
	assert.Equal(t, 20, cfg.BBPeriod)
	assert.Equal(t, 2.0, cfg.BBStdDev)
	assert.Equal(t, []int{50, 200}, cfg.SMAPeriods)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero rsi", func(c *Config) { c.RSIPeriod = 0 }},
		{"fast not shorter than slow", func(c *Config) { c.MACDFast = 26 }},
		{"zero signal", func(c *Config) { c.MACDSignal = 0 }},
		{"zero bb period", func(c *Config) { c.BBPeriod = 0 }},
		{"negative bb stddev", func(c *Config) { c.BBStdDev = -1 }},
		{"zero sma", func(c *Config) { c.SMAPeriods = []int{50, 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())

			_, err := NewEngine(cfg, nil)
			assert.True(t, errors.Is(err, core.ErrConfigInvalid))
		})
	}
}

func TestConfig_Window(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 15, cfg.Window(NameRSI))
	assert.Equal(t, 26, cfg.Window(NameMACD))
	assert.Equal(t, 34, cfg.Window(NameMACDSignal))
	assert.Equal(t, 34, cfg.Window(NameMACDHist))
	assert.Equal(t, 20, cfg.Window(NameBBUpper))
	assert.Equal(t, 50, cfg.Window("SMA_50"))
	assert.Equal(t, 200, cfg.Window("SMA_200"))
	assert.Equal(t, 0, cfg.Window("SMA_13"))
}

func TestEngine_Compute_ShapeAndPassThrough(t *testing.T) {
	e := newTestEngine(t)
	candles := randomWalk(60, 1)

	rows, err := e.Compute(candles)
	require.NoError(t, err)
	require.Len(t, rows, len(candles))

	for i, row := range rows {
		assert.Equal(t, candles[i], row.Candle)
		assert.Len(t, row.Indicators, len(e.Config().Names()))
	}
}

func TestEngine_Compute_WindowSufficiency(t *testing.T) {
	e := newTestEngine(t)
	cfg := e.Config()
	candles := randomWalk(250, 2)

	rows, err := e.Compute(candles)
	require.NoError(t, err)

	for _, name := range cfg.Names() {
		window := cfg.Window(name)
		require.NotZero(t, window, name)
		for i, row := range rows {
			assert.Equal(t, i >= window-1, row.Indicators.Get(name).Valid,
				"%s at index %d", name, i)
		}
	}
}

func TestEngine_Compute_ShortHistoryLeavesLongSMAUndefined(t *testing.T) {
	e := newTestEngine(t)

	rows, err := e.Compute(randomWalk(50, 3))
	require.NoError(t, err)

	last := rows[len(rows)-1].Indicators
	assert.False(t, last.Get("SMA_200").Valid)
	assert.Equal(t, 0.0, last.Get("SMA_200").OrZero())
	assert.True(t, last.Get("SMA_50").Valid)
	assert.True(t, last.Get(NameRSI).Valid)
	assert.True(t, last.Get(NameMACDSignal).Valid)
	assert.True(t, last.Get(NameBBLower).Valid)
}

func TestEngine_Compute_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	candles := randomWalk(120, 4)

	first, err := e.Compute(candles)
	require.NoError(t, err)
	second, err := e.Compute(candles)
	require.NoError(t, err)

	for i := range first {
		for name, v := range first[i].Indicators {
			w := second[i].Indicators[name]
			assert.Equal(t, v.Valid, w.Valid)
			assert.Equal(t, math.Float64bits(v.Float), math.Float64bits(w.Float),
				"%s at %d differs", name, i)
		}
	}
}

func TestEngine_Compute_IsCausal(t *testing.T) {
	e := newTestEngine(t)
	candles := randomWalk(120, 5)

	full, err := e.Compute(candles)
	require.NoError(t, err)
	prefix, err := e.Compute(candles[:80])
	require.NoError(t, err)

	for i := range prefix {
		for name, v := range prefix[i].Indicators {
			assert.Equal(t, v, full[i].Indicators[name], "%s at %d depends on later candles", name, i)
		}
	}
}

func TestEngine_Compute_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t)
	candles := randomWalk(60, 6)
	snapshot := append([]core.Candle(nil), candles...)

	_, err := e.Compute(candles)
	require.NoError(t, err)
	assert.Equal(t, snapshot, candles)
}

func TestEngine_Compute_NonFiniteFails(t *testing.T) {
	e := newTestEngine(t)
	candles := randomWalk(60, 7)
	candles[40].Close = math.Inf(1)

	_, err := e.Compute(candles)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrComputationFailed))
}

func TestEngine_Compute_CustomConfigsCoexist(t *testing.T) {
	short := DefaultConfig()
	short.RSIPeriod = 5
	short.SMAPeriods = []int{10}

	a := newTestEngine(t)
	b, err := NewEngine(short, nil)
	require.NoError(t, err)

	candles := randomWalk(30, 8)
	rowsA, err := a.Compute(candles)
	require.NoError(t, err)
	rowsB, err := b.Compute(candles)
	require.NoError(t, err)

	assert.False(t, rowsA[5].Indicators.Get(NameRSI).Valid)
	assert.True(t, rowsB[5].Indicators.Get(NameRSI).Valid)
	assert.True(t, rowsB[29].Indicators.Get("SMA_10").Valid)
	_, ok := rowsB[29].Indicators["SMA_50"]
	assert.False(t, ok)
}

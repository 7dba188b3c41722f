package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/quantmath/quantmath/internal/classifier"
	"github.com/quantmath/quantmath/internal/core"
	"github.com/quantmath/quantmath/internal/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, price func(i int) float64) []core.Candle {
	candles := make([]core.Candle, n)
	for i := range candles {
		p := price(i)
		candles[i] = core.Candle{
			Timestamp: "2024-01-01 00:00:00",
			Open:      p,
			High:      p + 0.5,
			Low:       p - 0.5,
			Close:     p,
			Volume:    1000,
		}
	}
	candles[n-1].Timestamp = "2024-01-03 12:15:00"
	return candles
}

func request(candles []core.Candle) core.AnalysisRequest {
	return core.AnalysisRequest{Symbol: "BTC-USD", Interval: "15m", Data: candles}
}

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := NewDefault(nil)
	require.NoError(t, err)
	return s
}

type fakeRecorder struct {
	analyses   []string
	rejections []string
}

func (f *fakeRecorder) RecordAnalysis(signal string, candles int, duration float64) {
	f.analyses = append(f.analyses, signal)
}

func (f *fakeRecorder) RecordRejection(code string) {
	f.rejections = append(f.rejections, code)
}

type panicEngine struct{}

func (panicEngine) Compute([]core.Candle) ([]indicator.Row, error) {
	panic("index out of range")
}

type failingEngine struct{ err error }

func (f failingEngine) Compute([]core.Candle) ([]indicator.Row, error) {
	return nil, f.err
}

func TestAnalyze_ConstantSeries(t *testing.T) {
	s := newService(t)

	res, err := s.Run(context.Background(), request(series(60, func(int) float64 { return 100 })))
	require.NoError(t, err)

	d := res.Decision
	assert.Equal(t, 50.0, d.Inputs.RSI.Float)
	assert.Equal(t, 0.0, d.Inputs.MACD.Float)
	assert.Equal(t, 0.0, d.Inputs.MACDSignal.Float)
	assert.Equal(t, 100.0, d.Inputs.TrendSMA.Float)
	assert.Equal(t, classifier.Contributions{}, d.Contributions)
	assert.Equal(t, 0.0, d.Score)
	assert.Equal(t, core.SignalNeutral, d.Signal)

	r := res.Report
	assert.Equal(t, core.SignalNeutral, r.Signal)
	assert.Equal(t, 50.0, r.Indicators["RSI"])
	assert.Equal(t, 100.0, r.Indicators["BB_upper"])
	assert.Equal(t, 100.0, r.Indicators["BB_lower"])
	assert.True(t, r.Defined["MACD"], "a zero MACD is still computed")
	assert.False(t, r.Defined["SMA_200"])
}

func TestAnalyze_RisingSeries(t *testing.T) {
	s := newService(t)

	// close = 100, 101, ..., 159
	res, err := s.Run(context.Background(), request(series(60, func(i int) float64 { return 100 + float64(i) })))
	require.NoError(t, err)

	d := res.Decision
	// only gains: average loss is zero, RSI pins at 100 (overbought)
	assert.Equal(t, 100.0, d.Inputs.RSI.Float)
	assert.Equal(t, -1.0, d.Contributions.RSI)
	// SMA_50 over 110..159
	assert.Equal(t, 134.5, d.Inputs.TrendSMA.Float)
	assert.Equal(t, 1.0, d.Contributions.Trend)
	assert.InDelta(t, 6.866964287009381, d.Inputs.MACD.Float, 1e-9)
	assert.InDelta(t, 6.805313756495572, d.Inputs.MACDSignal.Float, 1e-9)
	assert.Equal(t, 6.867, res.Report.Indicators["MACD"])
	assert.Equal(t, 6.8053, res.Report.Indicators["MACD_signal"])
	assert.Equal(t, 0.5, d.Contributions.Momentum)

	assert.Equal(t, 0.5, d.Score)
	assert.Equal(t, core.SignalNeutral, d.Signal)
	assert.Equal(t, 159.0, res.Report.LastPrice)
}

func TestAnalyze_FallingSeries(t *testing.T) {
	s := newService(t)

	// close = 200, 197, ..., 23
	res, err := s.Run(context.Background(), request(series(60, func(i int) float64 { return 200 - 3*float64(i) })))
	require.NoError(t, err)

	d := res.Decision
	// only losses: RSI is 0, which the rule reads as oversold (+1)
	assert.Equal(t, 0.0, d.Inputs.RSI.Float)
	assert.Equal(t, 1.0, d.Contributions.RSI)
	// SMA_50 over 170..23
	assert.Equal(t, 96.5, d.Inputs.TrendSMA.Float)
	assert.Equal(t, -1.0, d.Contributions.Trend)
	// a falling line is -3x the rising one
	assert.InDelta(t, -20.600892861028, d.Inputs.MACD.Float, 1e-9)
	assert.InDelta(t, -20.4159412694866, d.Inputs.MACDSignal.Float, 1e-9)
	assert.Equal(t, -20.6009, res.Report.Indicators["MACD"])
	assert.Equal(t, -20.4159, res.Report.Indicators["MACD_signal"])
	assert.Equal(t, -0.5, d.Contributions.Momentum)

	assert.Equal(t, -0.5, d.Score)
	assert.Equal(t, core.SignalNeutral, d.Signal)
	assert.Equal(t, 23.0, res.Report.LastPrice)
}

func TestAnalyze_MinimumCandles(t *testing.T) {
	s := newService(t)
	flat := func(int) float64 { return 100 }

	_, err := s.Analyze(context.Background(), request(series(49, flat)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
	assert.Contains(t, err.Error(), "got 49 candles, need at least 50")

	report, err := s.Analyze(context.Background(), request(series(50, flat)))
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Indicators["SMA_200"])
	assert.False(t, report.Defined["SMA_200"])
	assert.True(t, report.Defined["SMA_50"])
	assert.Equal(t, 50, report.Candles)
}

func TestAnalyze_MalformedCandle(t *testing.T) {
	s := newService(t)
	candles := series(60, func(int) float64 { return 100 })
	candles[3].High = math.NaN()

	_, err := s.Analyze(context.Background(), request(candles))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMalformedCandle))
	assert.Contains(t, err.Error(), "candle 3")
	assert.Contains(t, err.Error(), "high")
}

func TestAnalyze_ReportShape(t *testing.T) {
	s := newService(t)
	candles := series(60, func(i int) float64 { return 100 + math.Sin(float64(i)/3)*5 })

	report, err := s.Analyze(context.Background(), request(candles))
	require.NoError(t, err)

	assert.Equal(t, "BTC-USD", report.Symbol)
	assert.Equal(t, "15m", report.Interval)
	assert.Equal(t, "2024-01-03 12:15:00", report.Timestamp)
	assert.Equal(t, candles[59].Close, report.LastPrice)
	for _, name := range []string{"RSI", "MACD", "MACD_signal", "SMA_50", "SMA_200", "BB_upper", "BB_lower"} {
		assert.Contains(t, report.Indicators, name)
		assert.Contains(t, report.Defined, name)
	}
	assert.True(t, report.Signal.IsValid())
}

func TestAnalyze_RoundsIndicators(t *testing.T) {
	s := newService(t)
	candles := series(60, func(i int) float64 { return 100 + math.Sin(float64(i)/3)*5 })

	res, err := s.Run(context.Background(), request(candles))
	require.NoError(t, err)

	last := res.Rows[len(res.Rows)-1].Indicators
	assert.Equal(t, Round(last.Get("RSI").Float, 2), res.Report.Indicators["RSI"])
	assert.Equal(t, Round(last.Get("MACD").Float, 4), res.Report.Indicators["MACD"])
	assert.Equal(t, Round(last.Get("BB_upper").Float, 2), res.Report.Indicators["BB_upper"])
}

func TestAnalyze_Deterministic(t *testing.T) {
	s := newService(t)
	candles := series(120, func(i int) float64 { return 100 + math.Cos(float64(i)/5)*8 })

	first, err := s.Analyze(context.Background(), request(candles))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Analyze(context.Background(), request(candles))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnalyze_ComputationFailure(t *testing.T) {
	cls, err := classifier.New(classifier.DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name   string
		engine Engine
	}{
		{"panic", panicEngine{}},
		{"plain error", failingEngine{err: errors.New("boom")}},
		{"no rows", failingEngine{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			s, err := New(DefaultConfig(), tt.engine, cls, nil)
			require.NoError(t, err)
			s.SetRecorder(rec)

			report, err := s.Analyze(context.Background(), request(series(60, func(int) float64 { return 1 })))
			assert.Nil(t, report)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrComputationFailed))
			assert.Equal(t, []string{"COMPUTATION_FAILED"}, rec.rejections)
		})
	}
}

func TestAnalyze_RecordsOutcomes(t *testing.T) {
	s := newService(t)
	rec := &fakeRecorder{}
	s.SetRecorder(rec)

	_, err := s.Analyze(context.Background(), request(series(60, func(int) float64 { return 100 })))
	require.NoError(t, err)
	_, err = s.Analyze(context.Background(), request(series(10, func(int) float64 { return 100 })))
	require.Error(t, err)

	assert.Equal(t, []string{"NEUTRAL"}, rec.analyses)
	assert.Equal(t, []string{"INSUFFICIENT_DATA"}, rec.rejections)
}

func TestAnalyze_CanceledContext(t *testing.T) {
	s := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Analyze(ctx, request(series(60, func(int) float64 { return 100 })))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Validation(t *testing.T) {
	cls, err := classifier.New(classifier.DefaultConfig())
	require.NoError(t, err)
	engine, err := indicator.NewEngine(indicator.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = New(Config{MinCandles: 0}, engine, cls, nil)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))

	_, err = New(DefaultConfig(), nil, cls, nil)
	assert.True(t, errors.Is(err, core.ErrConfigMissing))

	s, err := New(Config{MinCandles: 20, Precision: DefaultPrecision()}, engine, cls, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, s.MinCandles())
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.23456, 2))
	assert.Equal(t, 0.1235, Round(0.123456, 4))
	assert.Equal(t, 2.68, Round(2.675, 2))
	assert.Equal(t, -2.68, Round(-2.675, 2))
	assert.Equal(t, 0.0, Round(0, 2))
}

func TestPrecision_Places(t *testing.T) {
	p := DefaultPrecision()

	assert.Equal(t, 2, p.Places("RSI"))
	assert.Equal(t, 4, p.Places("MACD"))
	assert.Equal(t, 4, p.Places("MACD_signal"))
	assert.Equal(t, 2, p.Places("SMA_50"))
}

func TestPrecision_PlacesIgnoresCase(t *testing.T) {
	p := Precision{Default: 2, PerName: map[string]int{"macd_hist": 5}}

	assert.Equal(t, 5, p.Places("MACD_hist"))
	assert.Equal(t, 2, p.Places("MACD"))
}

func TestSeries(t *testing.T) {
	s := newService(t)
	candles := series(60, func(i int) float64 { return 100 + float64(i%7) })

	res, err := s.Run(context.Background(), request(candles))
	require.NoError(t, err)

	points := Series(res.Rows, s.Precision())
	require.Len(t, points, 60)

	assert.Nil(t, points[0].Indicators["RSI"], "RSI is undefined on the first candle")
	assert.Nil(t, points[59].Indicators["SMA_200"])
	require.NotNil(t, points[59].Indicators["RSI"])
	assert.Equal(t, res.Report.Indicators["RSI"], *points[59].Indicators["RSI"])
	assert.Equal(t, candles[10].Close, points[10].Close)
}

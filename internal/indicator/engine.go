package indicator

import (
	"fmt"
	"math"
	"sort"

	"github.com/quantmath/quantmath/internal/core"
	"go.uber.org/zap"
)

// Config holds the window lengths of every indicator the engine computes.
type Config struct {
	RSIPeriod  int     `mapstructure:"rsi_period"`
	MACDFast   int     `mapstructure:"macd_fast"`
	MACDSlow   int     `mapstructure:"macd_slow"`
	MACDSignal int     `mapstructure:"macd_signal"`
	BBPeriod   int     `mapstructure:"bb_period"`
	BBStdDev   float64 `mapstructure:"bb_stddev"`
	SMAPeriods []int   `mapstructure:"sma_periods"`
}

// DefaultConfig returns RSI(14), MACD(12,26,9), Bollinger(20, 2) and SMA 50/200.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		BBStdDev:   2,
		SMAPeriods: []int{50, 200},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.RSIPeriod < 1 {
		return fmt.Errorf("rsi_period must be positive, got %d", c.RSIPeriod)
	}
	if c.MACDFast < 1 || c.MACDSlow < 1 || c.MACDSignal < 1 {
		return fmt.Errorf("macd periods must be positive, got %d/%d/%d", c.MACDFast, c.MACDSlow, c.MACDSignal)
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be shorter than macd_slow (%d)", c.MACDFast, c.MACDSlow)
	}
	if c.BBPeriod < 1 {
		return fmt.Errorf("bb_period must be positive, got %d", c.BBPeriod)
	}
	if c.BBStdDev <= 0 {
		return fmt.Errorf("bb_stddev must be positive, got %f", c.BBStdDev)
	}
	for _, p := range c.SMAPeriods {
		if p < 1 {
			return fmt.Errorf("sma period must be positive, got %d", p)
		}
	}
	return nil
}

// Window returns how many candles the named indicator needs before its first
// defined reading, or 0 for names the config does not produce.
func (c Config) Window(name string) int {
	switch name {
	case NameRSI:
		return c.RSIPeriod + 1
	case NameMACD:
		return c.MACDSlow
	case NameMACDSignal, NameMACDHist:
		return c.MACDSlow + c.MACDSignal - 1
	case NameBBUpper, NameBBMiddle, NameBBLower:
		return c.BBPeriod
	}
	for _, p := range c.SMAPeriods {
		if name == SMAName(p) {
			return p
		}
	}
	return 0
}

// Names lists every indicator name the config produces, sorted.
func (c Config) Names() []string {
	names := []string{
		NameRSI, NameMACD, NameMACDSignal, NameMACDHist,
		NameBBUpper, NameBBMiddle, NameBBLower,
	}
	for _, p := range c.SMAPeriods {
		names = append(names, SMAName(p))
	}
	sort.Strings(names)
	return names
}

// Row is a candle together with the indicator readings ending at it.
type Row struct {
	Candle     core.Candle
	Indicators Set
}

// Engine computes the configured indicators over a candle series.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates an indicator engine.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute returns one row per candle, in input order. The input is not modified.
// Readings whose window is incomplete are undefined; a non-finite reading is
// reported as ErrComputationFailed.
func (e *Engine) Compute(candles []core.Candle) ([]Row, error) {
	closes := core.Closes(candles)

	series := make(map[string][]Value, 7+len(e.cfg.SMAPeriods))
	series[NameRSI] = RSI(closes, e.cfg.RSIPeriod)
	series[NameMACD], series[NameMACDSignal], series[NameMACDHist] =
		MACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	series[NameBBUpper], series[NameBBMiddle], series[NameBBLower] =
		Bollinger(closes, e.cfg.BBPeriod, e.cfg.BBStdDev)
	for _, p := range e.cfg.SMAPeriods {
		series[SMAName(p)] = SMA(closes, p)
	}

	rows := make([]Row, len(candles))
	for i, c := range candles {
		set := make(Set, len(series))
		for name, values := range series {
			v := values[i]
			if v.Valid && (math.IsNaN(v.Float) || math.IsInf(v.Float, 0)) {
				return nil, core.WrapError(core.ErrComputationFailed,
					fmt.Errorf("%s at index %d is not finite", name, i))
			}
			set[name] = v
		}
		rows[i] = Row{Candle: c, Indicators: set}
	}

	e.logger.Debug("indicators computed",
		zap.Int("candles", len(candles)),
		zap.Int("indicators", len(series)),
	)

	return rows, nil
}

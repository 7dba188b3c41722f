// Package classifier turns the indicator readings of the latest candle into a
// discrete trading signal using a fixed weighted-scoring rule.
package classifier

import (
	"fmt"

	"github.com/quantmath/quantmath/internal/core"
	"github.com/quantmath/quantmath/internal/indicator"
)

// Config holds the scoring weights and signal thresholds.
type Config struct {
	RSIOversold    float64 `mapstructure:"rsi_oversold"`
	RSIOverbought  float64 `mapstructure:"rsi_overbought"`
	RSIWeight      float64 `mapstructure:"rsi_weight"`
	TrendWeight    float64 `mapstructure:"trend_weight"`
	MomentumWeight float64 `mapstructure:"momentum_weight"`
	TrendSMA       int     `mapstructure:"trend_sma"`

	StrongBuyAt  float64 `mapstructure:"strong_buy_at"`
	BuyAt        float64 `mapstructure:"buy_at"`
	SellAt       float64 `mapstructure:"sell_at"`
	StrongSellAt float64 `mapstructure:"strong_sell_at"`
}

// DefaultConfig returns the standard rule: RSI 30/70 worth ±1, close vs SMA_50
// worth ±1, MACD vs signal worth ±0.5; thresholds ±1 and ±2.
func DefaultConfig() Config {
	return Config{
		RSIOversold:    30,
		RSIOverbought:  70,
		RSIWeight:      1,
		TrendWeight:    1,
		MomentumWeight: 0.5,
		TrendSMA:       50,
		StrongBuyAt:    2,
		BuyAt:          1,
		SellAt:         -1,
		StrongSellAt:   -2,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%g) must be below rsi_overbought (%g)", c.RSIOversold, c.RSIOverbought)
	}
	if c.TrendSMA < 1 {
		return fmt.Errorf("trend_sma must be positive, got %d", c.TrendSMA)
	}
	if !(c.StrongSellAt <= c.SellAt && c.SellAt < c.BuyAt && c.BuyAt <= c.StrongBuyAt) {
		return fmt.Errorf("thresholds must satisfy strong_sell <= sell < buy <= strong_buy, got %g/%g/%g/%g",
			c.StrongSellAt, c.SellAt, c.BuyAt, c.StrongBuyAt)
	}
	return nil
}

// Inputs are the raw readings the decision was made from.
// Undefined readings are carried as-is.
type Inputs struct {
	Close      float64
	RSI        indicator.Value
	TrendSMA   indicator.Value
	MACD       indicator.Value
	MACDSignal indicator.Value
}

// Contributions break the score down by rule.
type Contributions struct {
	RSI      float64
	Trend    float64
	Momentum float64
}

// Decision is the classifier output.
type Decision struct {
	Signal        core.Signal
	Score         float64
	Inputs        Inputs
	Contributions Contributions
}

// Classifier applies the scoring rule. It is stateless and safe for concurrent use.
type Classifier struct {
	cfg Config
}

// New creates a classifier.
func New(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	return &Classifier{cfg: cfg}, nil
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify scores the latest candle's indicator set.
func (c *Classifier) Classify(last core.Candle, set indicator.Set) Decision {
	in := Inputs{
		Close:      last.Close,
		RSI:        set.Get(indicator.NameRSI),
		TrendSMA:   set.Get(indicator.SMAName(c.cfg.TrendSMA)),
		MACD:       set.Get(indicator.NameMACD),
		MACDSignal: set.Get(indicator.NameMACDSignal),
	}

	contrib := Contributions{
		RSI:      c.rsiScore(in.RSI),
		Trend:    c.trendScore(in.Close, in.TrendSMA),
		Momentum: c.momentumScore(in.MACD, in.MACDSignal),
	}
	score := contrib.RSI + contrib.Trend + contrib.Momentum

	return Decision{
		Signal:        c.SignalFor(score),
		Score:         score,
		Inputs:        in,
		Contributions: contrib,
	}
}

// SignalFor maps a score to a signal. Buy thresholds are checked first.
func (c *Classifier) SignalFor(score float64) core.Signal {
	switch {
	case score >= c.cfg.StrongBuyAt:
		return core.SignalStrongBuy
	case score >= c.cfg.BuyAt:
		return core.SignalBuy
	case score <= c.cfg.StrongSellAt:
		return core.SignalStrongSell
	case score <= c.cfg.SellAt:
		return core.SignalSell
	default:
		return core.SignalNeutral
	}
}

// Oversold reads as bullish, overbought as bearish.
func (c *Classifier) rsiScore(rsi indicator.Value) float64 {
	if !rsi.Valid {
		return 0
	}
	switch {
	case rsi.Float < c.cfg.RSIOversold:
		return c.cfg.RSIWeight
	case rsi.Float > c.cfg.RSIOverbought:
		return -c.cfg.RSIWeight
	}
	return 0
}

// A zero SMA counts as undefined.
func (c *Classifier) trendScore(close float64, sma indicator.Value) float64 {
	if !sma.Valid || sma.Float == 0 {
		return 0
	}
	switch {
	case close > sma.Float:
		return c.cfg.TrendWeight
	case close < sma.Float:
		return -c.cfg.TrendWeight
	}
	return 0
}

func (c *Classifier) momentumScore(macd, signal indicator.Value) float64 {
	if !macd.Valid || !signal.Valid {
		return 0
	}
	switch {
	case macd.Float > signal.Float:
		return c.cfg.MomentumWeight
	case macd.Float < signal.Float:
		return -c.cfg.MomentumWeight
	}
	return 0
}

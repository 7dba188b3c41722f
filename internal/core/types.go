package core

import (
	"fmt"
	"math"
)

// Candle is one OHLCV bar. Timestamp is an opaque label carried through to the output.
type Candle struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Validate reports the first non-finite field of the candle.
func (c Candle) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"open", c.Open},
		{"high", c.High},
		{"low", c.Low},
		{"close", c.Close},
		{"volume", c.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("field %s is not finite", f.name)
		}
	}
	return nil
}

// AnalysisRequest is the inbound payload: an ordered candle series, oldest first.
type AnalysisRequest struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Data     []Candle `json:"data"`
}

// Closes extracts the close price series.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// Signal is the categorical output of the classifier.
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalNeutral    Signal = "NEUTRAL"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
)

// Signals lists every signal from most bullish to most bearish.
var Signals = []Signal{SignalStrongBuy, SignalBuy, SignalNeutral, SignalSell, SignalStrongSell}

// Rank orders signals by bullishness: +2 for STRONG_BUY down to -2 for STRONG_SELL.
// Unknown values rank as neutral.
func (s Signal) Rank() int {
	switch s {
	case SignalStrongBuy:
		return 2
	case SignalBuy:
		return 1
	case SignalSell:
		return -1
	case SignalStrongSell:
		return -2
	default:
		return 0
	}
}

// IsValid checks the signal is one of the five known values
func (s Signal) IsValid() bool {
	for _, v := range Signals {
		if s == v {
			return true
		}
	}
	return false
}

package indicator

import "strconv"

// Indicator names as they appear in a Set.
const (
	NameRSI        = "RSI"
	NameMACD       = "MACD"
	NameMACDSignal = "MACD_signal"
	NameMACDHist   = "MACD_hist"
	NameBBUpper    = "BB_upper"
	NameBBMiddle   = "BB_middle"
	NameBBLower    = "BB_lower"
)

// SMAName returns the set key for a simple moving average of the given period, e.g. "SMA_50".
func SMAName(period int) string {
	return "SMA_" + strconv.Itoa(period)
}

// Value is an indicator reading that may be undefined because its
// trailing window is not yet full.
type Value struct {
	Float float64
	Valid bool
}

// Defined wraps a computed reading.
func Defined(v float64) Value {
	return Value{Float: v, Valid: true}
}

// OrZero returns the reading, or 0 when undefined.
func (v Value) OrZero() float64 {
	if !v.Valid {
		return 0
	}
	return v.Float
}

// Set maps indicator names to their reading at one candle.
type Set map[string]Value

// Get returns the named reading; unknown names are undefined.
func (s Set) Get(name string) Value {
	return s[name]
}

package indicator

// MACD calculates the MACD line, its signal line and the histogram.
//
// line = EMA(fast) - EMA(slow), defined from index slow-1.
// signal = EMA(signalPeriod) of the line, seeded with the first defined line
// value, defined from index slow-1 + signalPeriod-1.
func MACD(prices []float64, fast, slow, signalPeriod int) (line, signal, hist []Value) {
	n := len(prices)
	line = make([]Value, n)
	signal = make([]Value, n)
	hist = make([]Value, n)

	start := slow - 1
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 || n <= start {
		return line, signal, hist
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)

	raw := make([]float64, 0, n-start)
	for i := start; i < n; i++ {
		v := fastEMA[i] - slowEMA[i]
		line[i] = Defined(v)
		raw = append(raw, v)
	}

	sig := EMA(raw, signalPeriod)
	for j := signalPeriod - 1; j < len(sig); j++ {
		i := start + j
		signal[i] = Defined(sig[j])
		hist[i] = Defined(raw[j] - sig[j])
	}

	return line, signal, hist
}

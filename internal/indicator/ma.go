package indicator

// SMA calculates Simple Moving Average.
// The result is aligned with prices; positions before period-1 are undefined.
func SMA(prices []float64, period int) []Value {
	result := make([]Value, len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result[period-1] = Defined(sum / float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result[i] = Defined(sum / float64(period))
	}

	return result
}

// EMA calculates Exponential Moving Average with multiplier 2/(period+1).
// The first value seeds the average, so every position has a value; callers
// decide how many leading positions count as warm-up.
func EMA(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	if len(prices) == 0 || period <= 0 {
		return result
	}

	multiplier := 2.0 / float64(period+1)
	ema := prices[0]
	result[0] = ema

	for i := 1; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result[i] = ema
	}

	return result
}

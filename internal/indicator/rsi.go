package indicator

// RSI calculates the Relative Strength Index using Wilder's smoothing.
//
// The first average gain/loss is the mean of the first period changes; later
// averages are smoothed as (prev*(period-1) + x) / period. A reading is defined
// from index period onward.
//
// When the average loss is zero the RSI is 100, unless the average gain is also
// zero: a series with no movement at all reads 50.
func RSI(prices []float64, period int) []Value {
	result := make([]Value, len(prices))
	if period <= 0 || len(prices) <= period {
		return result
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = Defined(rsiFrom(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		result[i] = Defined(rsiFrom(avgGain, avgLoss))
	}

	return result
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

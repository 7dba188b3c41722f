package indicator

import "math"

// Bollinger calculates Bollinger Bands: middle = SMA(period),
// upper/lower = middle ± k·σ, where σ is the population standard deviation
// of the trailing window.
func Bollinger(prices []float64, period int, k float64) (upper, middle, lower []Value) {
	middle = SMA(prices, period)
	upper = make([]Value, len(prices))
	lower = make([]Value, len(prices))

	for i, m := range middle {
		if !m.Valid {
			continue
		}
		var ss float64
		for _, p := range prices[i-period+1 : i+1] {
			d := p - m.Float
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period))
		upper[i] = Defined(m.Float + k*sd)
		lower[i] = Defined(m.Float - k*sd)
	}

	return upper, middle, lower
}

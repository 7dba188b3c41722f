package analysis

import (
	"strings"

	"github.com/quantmath/quantmath/internal/classifier"
	"github.com/quantmath/quantmath/internal/core"
	"github.com/quantmath/quantmath/internal/indicator"
	"github.com/shopspring/decimal"
)

// Report is the outbound result of one analysis.
//
// Indicators carries 0 for readings that could not be computed; Defined tells
// a computed zero apart from that sentinel.
type Report struct {
	Symbol     string             `json:"symbol"`
	Interval   string             `json:"interval"`
	LastPrice  float64            `json:"last_price"`
	Timestamp  string             `json:"timestamp"`
	Indicators map[string]float64 `json:"indicators"`
	Defined    map[string]bool    `json:"defined"`
	Signal     core.Signal        `json:"signal"`
	Score      float64            `json:"score"`
	Candles    int                `json:"candles"`
}

// Precision is the number of decimal places each emitted indicator is rounded to.
type Precision struct {
	Default int            `mapstructure:"default"`
	PerName map[string]int `mapstructure:"per_name"`
}

// DefaultPrecision rounds MACD readings to 4 places and everything else to 2.
func DefaultPrecision() Precision {
	return Precision{
		Default: 2,
		PerName: map[string]int{
			indicator.NameMACD:       4,
			indicator.NameMACDSignal: 4,
			indicator.NameMACDHist:   4,
		},
	}
}

// Places returns the rounding for an indicator name. Names match
// case-insensitively since config keys arrive lowercased.
func (p Precision) Places(name string) int {
	if n, ok := p.PerName[name]; ok {
		return n
	}
	for k, n := range p.PerName {
		if strings.EqualFold(k, name) {
			return n
		}
	}
	return p.Default
}

// Round rounds half away from zero to the given places.
func Round(v float64, places int) float64 {
	f, _ := decimal.NewFromFloat(v).Round(int32(places)).Float64()
	return f
}

func buildReport(req core.AnalysisRequest, last indicator.Row, d classifier.Decision, p Precision) *Report {
	r := &Report{
		Symbol:     req.Symbol,
		Interval:   req.Interval,
		LastPrice:  last.Candle.Close,
		Timestamp:  last.Candle.Timestamp,
		Indicators: make(map[string]float64, len(last.Indicators)),
		Defined:    make(map[string]bool, len(last.Indicators)),
		Signal:     d.Signal,
		Score:      d.Score,
		Candles:    len(req.Data),
	}
	for name, v := range last.Indicators {
		r.Indicators[name] = Round(v.OrZero(), p.Places(name))
		r.Defined[name] = v.Valid
	}
	return r
}

// Point is one candle of an indicator series. Undefined readings are null.
type Point struct {
	Timestamp  string              `json:"timestamp"`
	Close      float64             `json:"close"`
	Indicators map[string]*float64 `json:"indicators"`
}

// Series converts engine rows into rounded points, oldest first.
func Series(rows []indicator.Row, p Precision) []Point {
	points := make([]Point, len(rows))
	for i, row := range rows {
		pt := Point{
			Timestamp:  row.Candle.Timestamp,
			Close:      row.Candle.Close,
			Indicators: make(map[string]*float64, len(row.Indicators)),
		}
		for name, v := range row.Indicators {
			if !v.Valid {
				pt.Indicators[name] = nil
				continue
			}
			f := Round(v.Float, p.Places(name))
			pt.Indicators[name] = &f
		}
		points[i] = pt
	}
	return points
}

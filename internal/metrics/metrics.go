package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Analysis metrics
	analysesTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	candlesPerCall   prometheus.Histogram
	rejectionsTotal  *prometheus.CounterVec
	collectorFetches *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantmath_analyses_total",
			Help: "Total number of completed analyses by signal",
		},
		[]string{"signal"},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quantmath_analysis_duration_seconds",
			Help:    "Indicator computation and classification time in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)
	r.candlesPerCall = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quantmath_analysis_candles",
			Help:    "Number of candles per analysis request",
			Buckets: []float64{50, 100, 200, 500, 1000, 5000, 10000},
		},
	)
	r.rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantmath_analysis_rejections_total",
			Help: "Total number of rejected analyses by error code",
		},
		[]string{"code"},
	)
	r.collectorFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantmath_collector_fetches_total",
			Help: "Total number of market data fetches by collector",
		},
		[]string{"collector", "status"},
	)

	reg.MustRegister(r.analysesTotal)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.candlesPerCall)
	reg.MustRegister(r.rejectionsTotal)
	reg.MustRegister(r.collectorFetches)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordAnalysis records a completed analysis.
func (r *Registry) RecordAnalysis(signal string, candles int, duration float64) {
	r.analysesTotal.WithLabelValues(signal).Inc()
	r.candlesPerCall.Observe(float64(candles))
	r.analysisDuration.Observe(duration)
}

// RecordRejection records an analysis that failed with the given error code.
func (r *Registry) RecordRejection(code string) {
	r.rejectionsTotal.WithLabelValues(code).Inc()
}

// RecordFetch records a collector fetch outcome.
func (r *Registry) RecordFetch(collector string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.collectorFetches.WithLabelValues(collector, status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

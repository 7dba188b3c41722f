package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/quantmath/quantmath/internal/api/response"
	"github.com/quantmath/quantmath/internal/collector"
	"github.com/quantmath/quantmath/internal/core"
	"go.uber.org/zap"
)

// DefaultPeriod is the lookback used when a symbol request names none. It is
// the shortest period whose daily candles cover the minimum series length.
const DefaultPeriod = "3mo"

// Fetcher loads candles from a named market data source.
type Fetcher interface {
	Fetch(ctx context.Context, source, symbol, period, interval string) ([]core.Candle, error)
	Names() []string
}

// SymbolHandler fetches a symbol's history server side and analyzes it.
type SymbolHandler struct {
	analyzer      Analyzer
	fetcher       Fetcher
	defaultSource string
	logger        *zap.Logger
}

// NewSymbolHandler creates a new symbol handler.
func NewSymbolHandler(analyzer Analyzer, fetcher Fetcher, defaultSource string, logger *zap.Logger) *SymbolHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SymbolHandler{
		analyzer:      analyzer,
		fetcher:       fetcher,
		defaultSource: defaultSource,
		logger:        logger,
	}
}

// Analysis handles GET /api/v1/symbols/{symbol}/analysis?period=&interval=&source=
func (h *SymbolHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	q := r.URL.Query()

	period := q.Get("period")
	if period == "" {
		period = DefaultPeriod
	}
	interval := q.Get("interval")
	if interval == "" {
		interval = collector.DefaultInterval(period)
	}
	source := q.Get("source")
	if source == "" {
		source = h.defaultSource
	}
	if !slices.Contains(h.fetcher.Names(), source) {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrBadRequest, fmt.Errorf("unknown source %q", source)))
		return
	}

	candles, err := h.fetcher.Fetch(r.Context(), source, symbol, period, interval)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Warn("fetch failed",
				zap.String("symbol", symbol),
				zap.String("source", source),
				zap.Error(err),
			)
		}
		response.Error(w, status, err)
		return
	}

	res, err := h.analyzer.Run(r.Context(), core.AnalysisRequest{
		Symbol:   symbol,
		Interval: interval,
		Data:     candles,
	})
	if err != nil {
		response.Error(w, StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, res.Report)
}

// internal/api/handler/api/analyze.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quantmath/quantmath/internal/analysis"
	"github.com/quantmath/quantmath/internal/api/response"
	"github.com/quantmath/quantmath/internal/core"
	"go.uber.org/zap"
)

// Analyzer is the part of analysis.Service the handler needs.
type Analyzer interface {
	Run(ctx context.Context, req core.AnalysisRequest) (*analysis.Result, error)
	Precision() analysis.Precision
}

// AnalyzeRequest is the request body for all analysis endpoints.
type AnalyzeRequest struct {
	Symbol   string       `json:"symbol"`
	Interval string       `json:"interval"`
	Data     []CandleBody `json:"data"`
}

// CandleBody mirrors core.Candle with optional fields so a missing
// value can be told apart from zero.
type CandleBody struct {
	Timestamp *string  `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

// Candle converts the body, naming the first missing field.
func (b CandleBody) Candle() (core.Candle, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}, {"volume", b.Volume},
	}
	if b.Timestamp == nil {
		return core.Candle{}, errors.New("missing field timestamp")
	}
	for _, f := range fields {
		if f.v == nil {
			return core.Candle{}, fmt.Errorf("missing field %s", f.name)
		}
	}
	return core.Candle{
		Timestamp: *b.Timestamp,
		Open:      *b.Open,
		High:      *b.High,
		Low:       *b.Low,
		Close:     *b.Close,
		Volume:    *b.Volume,
	}, nil
}

// SeriesResponse is the body of the series endpoint.
type SeriesResponse struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Points   []analysis.Point `json:"points"`
	Report   *analysis.Report `json:"report"`
}

// AnalyzeHandler handles analysis API requests.
type AnalyzeHandler struct {
	analyzer     Analyzer
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewAnalyzeHandler creates a new analyze handler. maxBodyBytes <= 0 disables the limit.
func NewAnalyzeHandler(analyzer Analyzer, maxBodyBytes int64, logger *zap.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyzeHandler{
		analyzer:     analyzer,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Analyze runs the pipeline and writes the bare report.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	response.Raw(w, http.StatusOK, res.Report)
}

// AnalyzeV1 runs the pipeline and writes the report in the standard envelope.
func (h *AnalyzeHandler) AnalyzeV1(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, res.Report)
}

// Series runs the pipeline and writes every candle's indicators.
func (h *AnalyzeHandler) Series(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, SeriesResponse{
		Symbol:   res.Report.Symbol,
		Interval: res.Report.Interval,
		Points:   analysis.Series(res.Rows, h.analyzer.Precision()),
		Report:   res.Report,
	})
}

func (h *AnalyzeHandler) run(w http.ResponseWriter, r *http.Request) (*analysis.Result, bool) {
	req, err := h.decode(w, r)
	if err != nil {
		response.Error(w, StatusFor(err), err)
		return nil, false
	}

	res, err := h.analyzer.Run(r.Context(), req)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("analysis failed", zap.String("symbol", req.Symbol), zap.Error(err))
		}
		response.Error(w, status, err)
		return nil, false
	}
	return res, true
}

func (h *AnalyzeHandler) decode(w http.ResponseWriter, r *http.Request) (core.AnalysisRequest, error) {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var in AnalyzeRequest
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		// A number that overflows float64 is the only way JSON can carry a
		// non-finite value, so it is a malformed candle rather than bad syntax.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Field, "data.") {
			return core.AnalysisRequest{}, core.WrapError(core.ErrMalformedCandle,
				fmt.Errorf("field %s: invalid %s", strings.TrimPrefix(typeErr.Field, "data."), typeErr.Value))
		}
		return core.AnalysisRequest{}, core.WrapError(core.ErrBadRequest, err)
	}

	req := core.AnalysisRequest{
		Symbol:   in.Symbol,
		Interval: in.Interval,
		Data:     make([]core.Candle, len(in.Data)),
	}
	for i, b := range in.Data {
		c, err := b.Candle()
		if err != nil {
			return core.AnalysisRequest{}, core.WrapError(core.ErrMalformedCandle, fmt.Errorf("candle %d: %w", i, err))
		}
		req.Data[i] = c
	}
	return req, nil
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrBadRequest), errors.Is(err, core.ErrInsufficientData):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrMalformedCandle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, core.ErrCollectorFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

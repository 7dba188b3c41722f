// Package analysis runs the indicator/signal pipeline for one request:
// validate the candles, compute indicators, classify the latest candle and
// build the outbound report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantmath/quantmath/internal/classifier"
	"github.com/quantmath/quantmath/internal/core"
	"github.com/quantmath/quantmath/internal/indicator"
	"go.uber.org/zap"
)

// Config holds pipeline-level settings.
type Config struct {
	MinCandles int       `mapstructure:"min_candles"`
	Precision  Precision `mapstructure:"precision"`
}

// DefaultConfig requires 50 candles.
func DefaultConfig() Config {
	return Config{
		MinCandles: 50,
		Precision:  DefaultPrecision(),
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.MinCandles < 1 {
		return fmt.Errorf("min_candles must be positive, got %d", c.MinCandles)
	}
	if c.Precision.Default < 0 {
		return fmt.Errorf("precision default cannot be negative, got %d", c.Precision.Default)
	}
	for name, n := range c.Precision.PerName {
		if n < 0 {
			return fmt.Errorf("precision for %s cannot be negative, got %d", name, n)
		}
	}
	return nil
}

// Recorder receives pipeline outcomes, typically for metrics.
type Recorder interface {
	RecordAnalysis(signal string, candles int, duration float64)
	RecordRejection(code string)
}

// Engine computes indicator rows for a candle series.
type Engine interface {
	Compute(candles []core.Candle) ([]indicator.Row, error)
}

// Result is a report together with the full decision behind it.
type Result struct {
	Report   *Report
	Decision classifier.Decision
	Rows     []indicator.Row
}

// Service runs the pipeline. It holds no per-request state.
type Service struct {
	cfg        Config
	engine     Engine
	classifier *classifier.Classifier
	recorder   Recorder
	logger     *zap.Logger
}

// New creates an analysis service.
func New(cfg Config, engine Engine, cls *classifier.Classifier, logger *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	if engine == nil || cls == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("engine and classifier are required"))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg,
		engine:     engine,
		classifier: cls,
		logger:     logger,
	}, nil
}

// NewDefault creates a service with the default engine, classifier and pipeline settings.
func NewDefault(logger *zap.Logger) (*Service, error) {
	engine, err := indicator.NewEngine(indicator.DefaultConfig(), logger)
	if err != nil {
		return nil, err
	}
	cls, err := classifier.New(classifier.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return New(DefaultConfig(), engine, cls, logger)
}

// SetRecorder sets the outcome recorder.
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// Precision returns the rounding applied to emitted values.
func (s *Service) Precision() Precision {
	return s.cfg.Precision
}

// MinCandles returns the minimum accepted series length.
func (s *Service) MinCandles() int {
	return s.cfg.MinCandles
}

// Validate checks the request before any computation.
func (s *Service) Validate(req core.AnalysisRequest) error {
	if len(req.Data) < s.cfg.MinCandles {
		return core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("got %d candles, need at least %d", len(req.Data), s.cfg.MinCandles))
	}
	for i, c := range req.Data {
		if err := c.Validate(); err != nil {
			return core.WrapError(core.ErrMalformedCandle, fmt.Errorf("candle %d: %w", i, err))
		}
	}
	return nil
}

// Analyze validates the request, computes indicators and classifies the latest candle.
func (s *Service) Analyze(ctx context.Context, req core.AnalysisRequest) (*Report, error) {
	res, err := s.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// Run is Analyze but also returns the decision and every computed row.
func (s *Service) Run(ctx context.Context, req core.AnalysisRequest) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.Validate(req); err != nil {
		s.reject(req, err)
		return nil, err
	}

	start := time.Now()

	rows, err := s.compute(req.Data)
	if err != nil {
		s.reject(req, err)
		return nil, err
	}

	last := rows[len(rows)-1]
	decision := s.classifier.Classify(last.Candle, last.Indicators)
	report := buildReport(req, last, decision, s.cfg.Precision)

	duration := time.Since(start).Seconds()
	if s.recorder != nil {
		s.recorder.RecordAnalysis(string(decision.Signal), len(req.Data), duration)
	}

	s.logger.Info("analysis complete",
		zap.String("symbol", req.Symbol),
		zap.String("interval", req.Interval),
		zap.Int("candles", len(req.Data)),
		zap.String("signal", string(decision.Signal)),
		zap.Float64("score", decision.Score),
	)

	return &Result{Report: report, Decision: decision, Rows: rows}, nil
}

// compute converts an engine panic into ErrComputationFailed.
func (s *Service) compute(candles []core.Candle) (rows []indicator.Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = core.WrapError(core.ErrComputationFailed, fmt.Errorf("panic: %v", r))
		}
	}()

	rows, err = s.engine.Compute(candles)
	if err != nil {
		var coreErr *core.Error
		if !errors.As(err, &coreErr) {
			err = core.WrapError(core.ErrComputationFailed, err)
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.WrapError(core.ErrComputationFailed, errors.New("engine returned no rows"))
	}
	return rows, nil
}

func (s *Service) reject(req core.AnalysisRequest, err error) {
	code := core.ErrComputationFailed.Code
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		code = coreErr.Code
	}
	if s.recorder != nil {
		s.recorder.RecordRejection(code)
	}
	s.logger.Warn("analysis rejected",
		zap.String("symbol", req.Symbol),
		zap.Int("candles", len(req.Data)),
		zap.String("code", code),
		zap.Error(err),
	)
}

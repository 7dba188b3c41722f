package main

import (
	"fmt"

	"github.com/quantmath/quantmath/internal/analysis"
	"github.com/quantmath/quantmath/internal/classifier"
	"github.com/quantmath/quantmath/internal/collector"
	"github.com/quantmath/quantmath/internal/collector/synthetic"
	"github.com/quantmath/quantmath/internal/collector/yahoo"
	"github.com/quantmath/quantmath/internal/config"
	"github.com/quantmath/quantmath/internal/indicator"
	"github.com/quantmath/quantmath/internal/logger"
	"go.uber.org/zap"
)

// loadConfig reads and validates the config named by --config. Without a
// file only defaults and QUANTMATH_* overrides apply.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.Build(logger.Options{
		Development: debug || cfg.Server.Mode == "debug",
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
	})
}

// buildService wires the indicator engine and classifier into the analysis
// pipeline.
func buildService(cfg *config.Config, log *zap.Logger) (*analysis.Service, error) {
	engine, err := indicator.NewEngine(cfg.Indicators, log)
	if err != nil {
		return nil, fmt.Errorf("creating indicator engine: %w", err)
	}
	cls, err := classifier.New(cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}
	svc, err := analysis.New(cfg.Analysis, engine, cls, log)
	if err != nil {
		return nil, fmt.Errorf("creating analysis service: %w", err)
	}
	return svc, nil
}

// newCollectors registers every market data source.
func newCollectors(cfg *config.Config) *collector.Registry {
	reg := collector.NewRegistry()
	reg.Register(yahoo.New(yahoo.Config{
		BaseURL: cfg.Collector.Yahoo.BaseURL,
		Timeout: cfg.Collector.Yahoo.Timeout,
	}))
	reg.Register(synthetic.New(synthetic.Config{
		Seed:       cfg.Collector.Synthetic.Seed,
		StartPrice: cfg.Collector.Synthetic.StartPrice,
	}))
	return reg
}

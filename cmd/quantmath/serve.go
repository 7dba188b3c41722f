package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantmath/quantmath/internal/api"
	"github.com/quantmath/quantmath/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the QuantMath API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	svc, err := buildService(cfg, log)
	if err != nil {
		return err
	}

	sources := newCollectors(cfg)

	var reg *metrics.Registry
	metricsPath := ""
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		svc.SetRecorder(reg)
		sources.SetRecorder(reg)
		metricsPath = cfg.Metrics.Path
	}

	if cfg.Server.APIKey == "" {
		log.Warn("no api key configured, analysis endpoints are open")
	}

	log.Info("starting QuantMath server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("version", Version),
		zap.Int("min_candles", svc.MinCandles()),
	)

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		Version:      Version,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MetricsPath:  metricsPath,
		CORSOrigins:  cfg.Server.CORSOrigins,

		DefaultSource: cfg.Collector.Default,
	}, api.Dependencies{
		Analyzer:   svc,
		Collectors: sources,
		Metrics:    reg,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
		return err
	case <-quit:
	}

	log.Info("shutting down QuantMath server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}

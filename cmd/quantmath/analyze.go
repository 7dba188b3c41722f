package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/quantmath/quantmath/internal/analysis"
	"github.com/quantmath/quantmath/internal/collector"
	"github.com/quantmath/quantmath/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeSymbol   string
	analyzePeriod   string
	analyzeInterval string
	analyzeSource   string
	analyzeSeries   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch candles for a symbol and print its analysis report",
	Example: `  quantmath analyze --symbol AAPL --period 3mo
  quantmath analyze --symbol BTC-USD --period 5d --interval 60m
  quantmath analyze --symbol DEMO --source synthetic --series`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeSymbol, "symbol", "s", "", "ticker symbol (required)")
	analyzeCmd.Flags().StringVarP(&analyzePeriod, "period", "p", "3mo", "lookback period: 1d, 5d, 1mo, 3mo, 1y, ytd")
	analyzeCmd.Flags().StringVarP(&analyzeInterval, "interval", "i", "", "candle interval (default depends on period)")
	analyzeCmd.Flags().StringVar(&analyzeSource, "source", "", "collector: yahoo or synthetic (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeSeries, "series", false, "also print the per-candle indicator series")
	analyzeCmd.MarkFlagRequired("symbol")
	rootCmd.AddCommand(analyzeCmd)
}

// analyzeOutput is what the command prints.
type analyzeOutput struct {
	Report *analysis.Report `json:"report"`
	Series []analysis.Point `json:"series,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	svc, err := buildService(cfg, log)
	if err != nil {
		return err
	}

	interval := analyzeInterval
	if interval == "" {
		interval = collector.DefaultInterval(analyzePeriod)
	}
	source := analyzeSource
	if source == "" {
		source = cfg.Collector.Default
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	candles, err := newCollectors(cfg).Fetch(ctx, source, analyzeSymbol, analyzePeriod, interval)
	if err != nil {
		return fmt.Errorf("fetching %s from %s: %w", analyzeSymbol, source, err)
	}
	log.Debug("fetched candles",
		zap.String("symbol", analyzeSymbol),
		zap.String("source", source),
		zap.Int("count", len(candles)),
	)
	if len(candles) < svc.MinCandles() {
		log.Warn("not enough candles for analysis, try a longer period or shorter interval",
			zap.Int("have", len(candles)),
			zap.Int("need", svc.MinCandles()),
		)
	}

	res, err := svc.Run(ctx, core.AnalysisRequest{
		Symbol:   analyzeSymbol,
		Interval: interval,
		Data:     candles,
	})
	if err != nil {
		return err
	}

	out := analyzeOutput{Report: res.Report}
	if analyzeSeries {
		out.Series = analysis.Series(res.Rows, svc.Precision())
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quantmath/quantmath/internal/analysis"
	"github.com/quantmath/quantmath/internal/api/middleware"
	"github.com/quantmath/quantmath/internal/collector/synthetic"
	"github.com/quantmath/quantmath/internal/core"
	"github.com/quantmath/quantmath/internal/indicator"
	"github.com/spf13/cobra"
)

var (
	probeURL     string
	probeAPIKey  string
	probeSymbol  string
	probeCandles int
	probeSeed    int64
	probeTimeout time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send synthetic candles to a running server and print the verdict",
	RunE:  runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeURL, "url", "http://127.0.0.1:8000/analyze", "analyze endpoint")
	probeCmd.Flags().StringVar(&probeAPIKey, "api-key", "", "value for the "+middleware.APIKeyHeader+" header")
	probeCmd.Flags().StringVar(&probeSymbol, "symbol", "BTC-USD", "symbol label")
	probeCmd.Flags().IntVar(&probeCandles, "candles", 100, "number of candles to send")
	probeCmd.Flags().Int64Var(&probeSeed, "seed", 0, "random walk seed (0 for time based)")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	if probeCandles < 1 || probeCandles > synthetic.MaxCandles {
		return fmt.Errorf("--candles must be between 1 and %d", synthetic.MaxCandles)
	}

	gen := synthetic.New(synthetic.Config{Seed: probeSeed})
	payload, err := json.Marshal(core.AnalysisRequest{
		Symbol:   probeSymbol,
		Interval: "15m",
		Data:     gen.Generate(probeCandles, 15*time.Minute, time.Now()),
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, probeURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if probeAPIKey != "" {
		req.Header.Set(middleware.APIKeyHeader, probeAPIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", probeURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var report analysis.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("decoding report: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Symbol:     %s\n", report.Symbol)
	fmt.Fprintf(out, "Last price: %.2f\n", report.LastPrice)
	fmt.Fprintf(out, "RSI:        %s\n", reading(report, indicator.NameRSI))
	fmt.Fprintf(out, "MACD:       %s\n", reading(report, indicator.NameMACD))
	fmt.Fprintf(out, "Signal:     %s (score %.2f)\n", report.Signal, report.Score)
	return nil
}

func reading(r analysis.Report, name string) string {
	if !r.Defined[name] {
		return "n/a"
	}
	return fmt.Sprintf("%g", r.Indicators[name])
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quantmath/quantmath/internal/analysis"
	"github.com/quantmath/quantmath/internal/classifier"
	"github.com/quantmath/quantmath/internal/core"
	"github.com/quantmath/quantmath/internal/indicator"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. QUANTMATH_SERVER_PORT.
const EnvPrefix = "QUANTMATH"

type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Analysis   analysis.Config   `mapstructure:"analysis"`
	Indicators indicator.Config  `mapstructure:"indicators"`
	Classifier classifier.Config `mapstructure:"classifier"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Collector  CollectorConfig   `mapstructure:"collector"`
	Log        LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	APIKey       string        `mapstructure:"api_key"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// LogConfig overrides the logger preset chosen by --debug.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CollectorConfig holds market data source settings.
type CollectorConfig struct {
	Default   string          `mapstructure:"default"`
	Yahoo     YahooConfig     `mapstructure:"yahoo"`
	Synthetic SyntheticConfig `mapstructure:"synthetic"`
}

type YahooConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SyntheticConfig seeds the random-walk generator. Seed 0 means time-based.
type SyntheticConfig struct {
	Seed       int64   `mapstructure:"seed"`
	StartPrice float64 `mapstructure:"start_price"`
}

// Load reads configuration from file. An empty path loads defaults plus
// environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every default key so file-less runs and env
// overrides see the full tree.
func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	v.SetDefault("analysis.min_candles", d.Analysis.MinCandles)
	v.SetDefault("analysis.precision.default", d.Analysis.Precision.Default)
	v.SetDefault("analysis.precision.per_name", d.Analysis.Precision.PerName)

	v.SetDefault("indicators.rsi_period", d.Indicators.RSIPeriod)
	v.SetDefault("indicators.macd_fast", d.Indicators.MACDFast)
	v.SetDefault("indicators.macd_slow", d.Indicators.MACDSlow)
	v.SetDefault("indicators.macd_signal", d.Indicators.MACDSignal)
	v.SetDefault("indicators.bb_period", d.Indicators.BBPeriod)
	v.SetDefault("indicators.bb_stddev", d.Indicators.BBStdDev)
	v.SetDefault("indicators.sma_periods", d.Indicators.SMAPeriods)

	v.SetDefault("classifier.rsi_oversold", d.Classifier.RSIOversold)
	v.SetDefault("classifier.rsi_overbought", d.Classifier.RSIOverbought)
	v.SetDefault("classifier.rsi_weight", d.Classifier.RSIWeight)
	v.SetDefault("classifier.trend_weight", d.Classifier.TrendWeight)
	v.SetDefault("classifier.momentum_weight", d.Classifier.MomentumWeight)
	v.SetDefault("classifier.trend_sma", d.Classifier.TrendSMA)
	v.SetDefault("classifier.strong_buy_at", d.Classifier.StrongBuyAt)
	v.SetDefault("classifier.buy_at", d.Classifier.BuyAt)
	v.SetDefault("classifier.sell_at", d.Classifier.SellAt)
	v.SetDefault("classifier.strong_sell_at", d.Classifier.StrongSellAt)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("collector.default", d.Collector.Default)
	v.SetDefault("collector.yahoo.base_url", d.Collector.Yahoo.BaseURL)
	v.SetDefault("collector.yahoo.timeout", d.Collector.Yahoo.Timeout)
	v.SetDefault("collector.synthetic.seed", d.Collector.Synthetic.Seed)
	v.SetDefault("collector.synthetic.start_price", d.Collector.Synthetic.StartPrice)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.encoding", d.Log.Encoding)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			Mode:         "release",
			MaxBodyBytes: 10 << 20,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Analysis:   analysis.DefaultConfig(),
		Indicators: indicator.DefaultConfig(),
		Classifier: classifier.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Collector: CollectorConfig{
			Default: "yahoo",
			Yahoo: YahooConfig{
				BaseURL: "https://query1.finance.yahoo.com",
				Timeout: 10 * time.Second,
			},
			Synthetic: SyntheticConfig{
				StartPrice: 100,
			},
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	switch c.Server.Mode {
	case "release", "debug":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("server mode must be release or debug, got %q", c.Server.Mode))
	}
	if c.Server.MaxBodyBytes < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_body_bytes cannot be negative, got %d", c.Server.MaxBodyBytes))
	}
	if err := c.Analysis.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("analysis: %w", err))
	}
	if err := c.Indicators.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("indicators: %w", err))
	}
	if err := c.Classifier.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("classifier: %w", err))
	}

	// The trend rule reads an SMA the engine must produce.
	found := false
	for _, p := range c.Indicators.SMAPeriods {
		if p == c.Classifier.TrendSMA {
			found = true
			break
		}
	}
	if !found {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("classifier.trend_sma %d is not in indicators.sma_periods %v",
				c.Classifier.TrendSMA, c.Indicators.SMAPeriods))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("metrics path must start with /, got %q", c.Metrics.Path))
	}

	switch c.Collector.Default {
	case "yahoo", "synthetic":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown default collector %q", c.Collector.Default))
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("log encoding must be json or console, got %q", c.Log.Encoding))
	}
	if c.Collector.Yahoo.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("collector.yahoo.base_url required"))
	}

	return nil
}

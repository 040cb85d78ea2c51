package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/QuantLab/internal/indicators"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LogLevel       string  `yaml:"log_level"`
	HTTPAddr       string  `yaml:"http_addr"`
	RequestTimeout int     `yaml:"request_timeout"` // seconds
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	DBDriver   string `yaml:"db_driver"`
	SQLitePath string `yaml:"sqlite_path"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	DataSource      string `yaml:"data_source"`
	DataRefreshCron string `yaml:"data_refresh_cron"`

	SMAWindows       []int   `yaml:"sma_windows"`
	EMASpans         []int   `yaml:"ema_spans"`
	RSIPeriod        int     `yaml:"rsi_period"`
	MACDFastPeriod   int     `yaml:"macd_fast_period"`
	MACDSlowPeriod   int     `yaml:"macd_slow_period"`
	MACDSignalPeriod int     `yaml:"macd_signal_period"`
	BBPeriod         int     `yaml:"bb_period"`
	BBStdDev         float64 `yaml:"bb_std_dev"`
	StochKPeriod     int     `yaml:"stoch_k_period"`
	StochDPeriod     int     `yaml:"stoch_d_period"`
	ATRPeriod        int     `yaml:"atr_period"`

	DefaultIndicatorDays int `yaml:"default_indicator_days"`
	DefaultAnalysisDays  int `yaml:"default_analysis_days"`
}

// Default returns the built-in configuration
func Default() *Config {
	p := indicators.DefaultParams()
	return &Config{
		LogLevel:             "info",
		HTTPAddr:             ":8080",
		RequestTimeout:       30,
		RateLimitRPS:         20,
		RateLimitBurst:       40,
		DBDriver:             "memory",
		SQLitePath:           "data/quantlab.db",
		DBHost:               "localhost",
		DBPort:               "5432",
		DBUser:               "postgres",
		DBName:               "quantlab",
		DBSSLMode:            "disable",
		DataSource:           "data/stock_prices.csv",
		SMAWindows:           p.SMAWindows,
		EMASpans:             p.EMASpans,
		RSIPeriod:            p.RSIPeriod,
		MACDFastPeriod:       p.MACDFast,
		MACDSlowPeriod:       p.MACDSlow,
		MACDSignalPeriod:     p.MACDSignal,
		BBPeriod:             p.BBPeriod,
		BBStdDev:             p.BBStdDev,
		StochKPeriod:         p.StochKPeriod,
		StochDPeriod:         p.StochDPeriod,
		ATRPeriod:            p.ATRPeriod,
		DefaultIndicatorDays: 90,
		DefaultAnalysisDays:  252,
	}
}

// Load builds the configuration from defaults, the optional YAML file
// named by QUANTLAB_CONFIG and environment variables, in that order
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Default()

	if path := os.Getenv("QUANTLAB_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)
	c.HTTPAddr = getEnvWithDefault("HTTP_ADDR", c.HTTPAddr)
	c.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", c.RequestTimeout)
	c.RateLimitRPS = getEnvFloatWithDefault("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvIntWithDefault("RATE_LIMIT_BURST", c.RateLimitBurst)

	c.DBDriver = getEnvWithDefault("DB_DRIVER", c.DBDriver)
	c.SQLitePath = getEnvWithDefault("SQLITE_PATH", c.SQLitePath)
	c.DBHost = getEnvWithDefault("DB_HOST", c.DBHost)
	c.DBPort = getEnvWithDefault("DB_PORT", c.DBPort)
	c.DBUser = getEnvWithDefault("DB_USER", c.DBUser)
	c.DBPassword = getEnvWithDefault("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnvWithDefault("DB_NAME", c.DBName)
	c.DBSSLMode = getEnvWithDefault("DB_SSLMODE", c.DBSSLMode)

	c.DataSource = getEnvWithDefault("DATA_SOURCE", c.DataSource)
	c.DataRefreshCron = getEnvWithDefault("DATA_REFRESH_CRON", c.DataRefreshCron)

	c.SMAWindows = getEnvIntsWithDefault("SMA_WINDOWS", c.SMAWindows)
	c.EMASpans = getEnvIntsWithDefault("EMA_SPANS", c.EMASpans)
	c.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", c.RSIPeriod)
	c.MACDFastPeriod = getEnvIntWithDefault("MACD_FAST_PERIOD", c.MACDFastPeriod)
	c.MACDSlowPeriod = getEnvIntWithDefault("MACD_SLOW_PERIOD", c.MACDSlowPeriod)
	c.MACDSignalPeriod = getEnvIntWithDefault("MACD_SIGNAL_PERIOD", c.MACDSignalPeriod)
	c.BBPeriod = getEnvIntWithDefault("BB_PERIOD", c.BBPeriod)
	c.BBStdDev = getEnvFloatWithDefault("BB_STD_DEV", c.BBStdDev)
	c.StochKPeriod = getEnvIntWithDefault("STOCH_K_PERIOD", c.StochKPeriod)
	c.StochDPeriod = getEnvIntWithDefault("STOCH_D_PERIOD", c.StochDPeriod)
	c.ATRPeriod = getEnvIntWithDefault("ATR_PERIOD", c.ATRPeriod)

	c.DefaultIndicatorDays = getEnvIntWithDefault("DEFAULT_INDICATOR_DAYS", c.DefaultIndicatorDays)
	c.DefaultAnalysisDays = getEnvIntWithDefault("DEFAULT_ANALYSIS_DAYS", c.DefaultAnalysisDays)
}

// IndicatorParams returns the configured indicator lookbacks
func (c *Config) IndicatorParams() indicators.Params {
	return indicators.Params{
		SMAWindows:   c.SMAWindows,
		EMASpans:     c.EMASpans,
		RSIPeriod:    c.RSIPeriod,
		MACDFast:     c.MACDFastPeriod,
		MACDSlow:     c.MACDSlowPeriod,
		MACDSignal:   c.MACDSignalPeriod,
		BBPeriod:     c.BBPeriod,
		BBStdDev:     c.BBStdDev,
		StochKPeriod: c.StochKPeriod,
		StochDPeriod: c.StochDPeriod,
		ATRPeriod:    c.ATRPeriod,
	}
}

// Timeout returns the request timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "memory", "sqlite3", "postgres":
	default:
		return fmt.Errorf("db_driver must be memory, sqlite3 or postgres, got %q", c.DBDriver)
	}
	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %d", c.RequestTimeout)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate_limit_rps and rate_limit_burst must be positive")
	}
	if c.DefaultIndicatorDays < 30 || c.DefaultAnalysisDays < 30 {
		return errors.New("default request days must be at least 30")
	}
	if err := c.IndicatorParams().Validate(); err != nil {
		return fmt.Errorf("indicator defaults: %w", err)
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvIntsWithDefault parses a comma separated list such as "5,10,20"
func getEnvIntsWithDefault(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer list, using default")
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"scalperbot/models"
)

// Config holds all application configuration.
type Config struct {
	Symbol        string
	Timeframe     string
	CandleCount   int
	ReverseMode   bool
	BacktestSteps int

	Strategy models.StrategyConfig

	TelegramBotToken string
	TelegramChatID   int64

	SignalLogPath string
	DatabaseURL   string // optional; switches the signal log to Postgres

	LogLevel       string
	RequestTimeout int // seconds
}

// Load initializes configuration from environment variables and
// validates it. A validation error here means the engine must not start.
func Load() (*Config, error) {
	// Load environment variables from .env file if present.
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	strat := models.DefaultStrategyConfig()
	strat.EMAShortPeriod = getEnvIntWithDefault("EMA_SHORT_PERIOD", strat.EMAShortPeriod)
	strat.EMALongPeriod = getEnvIntWithDefault("EMA_LONG_PERIOD", strat.EMALongPeriod)
	strat.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", strat.RSIPeriod)
	strat.MACDFastPeriod = getEnvIntWithDefault("MACD_FAST_PERIOD", strat.MACDFastPeriod)
	strat.MACDSlowPeriod = getEnvIntWithDefault("MACD_SLOW_PERIOD", strat.MACDSlowPeriod)
	strat.MACDSignalPeriod = getEnvIntWithDefault("MACD_SIGNAL_PERIOD", strat.MACDSignalPeriod)
	strat.BBPeriod = getEnvIntWithDefault("BB_PERIOD", strat.BBPeriod)
	strat.BBStdDev = getEnvFloatWithDefault("BB_STD_DEV", strat.BBStdDev)
	strat.VolumeAvgPeriod = getEnvIntWithDefault("VOL_AVG_PERIOD", strat.VolumeAvgPeriod)
	strat.VolumeMultiplier = getEnvFloatWithDefault("VOL_MULTIPLIER", strat.VolumeMultiplier)
	strat.TrendThresholdPct = getEnvFloatWithDefault("TREND_THRESHOLD_PCT", strat.TrendThresholdPct)
	strat.TakeProfitPct = getEnvFloatWithDefault("TP_PERCENT", strat.TakeProfitPct)
	strat.StopLossPct = getEnvFloatWithDefault("SL_PERCENT", strat.StopLossPct)
	strat.UseEMA = getEnvBoolWithDefault("USE_EMA", true)
	strat.UseRSI = getEnvBoolWithDefault("USE_RSI", true)
	strat.UseMACD = getEnvBoolWithDefault("USE_MACD", true)
	strat.UseBands = getEnvBoolWithDefault("USE_BANDS", true)

	cfg := &Config{
		Symbol:           getEnvWithDefault("SYMBOL", "BTCUSDT"),
		Timeframe:        getEnvWithDefault("TIMEFRAME", "1m"),
		CandleCount:      getEnvIntWithDefault("CANDLE_COUNT", 300),
		ReverseMode:      getEnvBoolWithDefault("REVERSE_MODE", false),
		BacktestSteps:    getEnvIntWithDefault("BACKTEST_STEPS", 200),
		Strategy:         strat,
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		SignalLogPath:    getEnvWithDefault("SIGNAL_LOG_PATH", "logs/signals.csv"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		RequestTimeout:   getEnvIntWithDefault("REQUEST_TIMEOUT", 30),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatID, err)
		}
		cfg.TelegramChatID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := models.TimeframeMinutes(c.Timeframe); err != nil {
		return err
	}
	if c.CandleCount < 50 {
		return fmt.Errorf("CANDLE_COUNT must be at least 50, got %d", c.CandleCount)
	}
	if c.BacktestSteps < 30 {
		return fmt.Errorf("BACKTEST_STEPS must be at least 30, got %d", c.BacktestSteps)
	}
	if c.Strategy.TakeProfitPct <= 0 || c.Strategy.StopLossPct <= 0 {
		return fmt.Errorf("TP_PERCENT and SL_PERCENT must be positive")
	}
	if c.Strategy.VolumeMultiplier <= 0 {
		return fmt.Errorf("VOL_MULTIPLIER must be positive")
	}
	if c.Strategy.EMAShortPeriod <= 0 || c.Strategy.EMALongPeriod <= 0 ||
		c.Strategy.EMAShortPeriod >= c.Strategy.EMALongPeriod {
		return fmt.Errorf("EMA periods must satisfy 0 < short < long")
	}
	periods := map[string]int{
		"RSI_PERIOD":         c.Strategy.RSIPeriod,
		"MACD_FAST_PERIOD":   c.Strategy.MACDFastPeriod,
		"MACD_SLOW_PERIOD":   c.Strategy.MACDSlowPeriod,
		"MACD_SIGNAL_PERIOD": c.Strategy.MACDSignalPeriod,
		"BB_PERIOD":          c.Strategy.BBPeriod,
		"VOL_AVG_PERIOD":     c.Strategy.VolumeAvgPeriod,
	}
	for name, p := range periods {
		if p <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, p)
		}
	}
	return nil
}

// Helper functions for environment variable handling.
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

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

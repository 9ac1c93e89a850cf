package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dgitools/internal/logger"
	"dgitools/internal/penalty"
)

type Config struct {
	// Penalty Parameters (Article 78-2/78-3 defaults)
	PenaltyBaseRate         decimal.Decimal
	PenaltyMonthlyIncrement decimal.Decimal
	DefaultDelayDays        int
	LegalMaxDelayDays       int

	// Business Calendar Configuration
	UseBusinessCalendar bool
	IslamicHolidays     []time.Time

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	baseRate, err := getEnvDecimal("PENALTY_BASE_RATE", "0.03")
	if err != nil {
		return nil, fmt.Errorf("PENALTY_BASE_RATE: %w", err)
	}
	increment, err := getEnvDecimal("PENALTY_MONTHLY_INCREMENT", "0.0085")
	if err != nil {
		return nil, fmt.Errorf("PENALTY_MONTHLY_INCREMENT: %w", err)
	}
	defaultDelay, err := getEnvInt("DEFAULT_DELAY_DAYS", 60)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_DELAY_DAYS: %w", err)
	}
	maxDelay, err := getEnvInt("LEGAL_MAX_DELAY_DAYS", 120)
	if err != nil {
		return nil, fmt.Errorf("LEGAL_MAX_DELAY_DAYS: %w", err)
	}
	holidays, err := getEnvDates("ISLAMIC_HOLIDAYS")
	if err != nil {
		return nil, fmt.Errorf("ISLAMIC_HOLIDAYS: %w", err)
	}

	config := &Config{
		PenaltyBaseRate:         baseRate,
		PenaltyMonthlyIncrement: increment,
		DefaultDelayDays:        defaultDelay,
		LegalMaxDelayDays:       maxDelay,
		UseBusinessCalendar:     getEnv("USE_BUSINESS_CALENDAR", "true") == "true",
		IslamicHolidays:         holidays,
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:               getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.PenaltyBaseRate.IsNegative() {
		return fmt.Errorf("PENALTY_BASE_RATE must not be negative")
	}
	if c.PenaltyMonthlyIncrement.IsNegative() {
		return fmt.Errorf("PENALTY_MONTHLY_INCREMENT must not be negative")
	}
	if c.LegalMaxDelayDays < 1 {
		return fmt.Errorf("LEGAL_MAX_DELAY_DAYS must be at least 1")
	}
	if c.DefaultDelayDays < 1 || c.DefaultDelayDays > c.LegalMaxDelayDays {
		return fmt.Errorf("DEFAULT_DELAY_DAYS must be in [1, %d]", c.LegalMaxDelayDays)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetPenaltyConfig returns the engine configuration, wiring the Moroccan
// business calendar when enabled.
func (c *Config) GetPenaltyConfig() penalty.Config {
	cfg := penalty.Config{
		BaseRate:          c.PenaltyBaseRate,
		MonthlyIncrement:  c.PenaltyMonthlyIncrement,
		DefaultDelayDays:  c.DefaultDelayDays,
		LegalMaxDelayDays: c.LegalMaxDelayDays,
	}
	if c.UseBusinessCalendar {
		cfg.Calendar = penalty.NewMoroccanCalendar(c.IslamicHolidays...)
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	return decimal.NewFromString(getEnv(key, defaultValue))
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}

// getEnvDates parses a comma-separated list of YYYY-MM-DD dates.
func getEnvDates(key string) ([]time.Time, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	var dates []time.Time
	for _, part := range strings.Split(v, ",") {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

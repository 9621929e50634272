package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	errInvalidPort                = errors.New("config: invalid PORT number")
	errProbeConcurrencyOutOfRange = errors.New("config: PROBE_CONCURRENCY must be 1-16")
	errInvalidAnalyzeTimeout      = errors.New("config: ANALYZE_TIMEOUT must be a positive duration")
	errInvalidRedisDB             = errors.New("config: REDIS_DB must be a non-negative integer")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port     string
	LogLevel string

	// LogFile, when set, receives a rotated copy of the log stream.
	LogFile string

	ProbeConcurrency int
	AnalyzeTimeout   time.Duration

	// DatabaseURL selects the Postgres store; empty means in-memory storage.
	DatabaseURL string

	// RedisAddr enables session lookup; empty means every request is anonymous.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "ERROR"),
		LogFile:          getEnv("LOG_FILE", ""),
		ProbeConcurrency: getEnvAsInt("PROBE_CONCURRENCY", 4),
		AnalyzeTimeout:   getEnvAsDuration("ANALYZE_TIMEOUT", 60*time.Second),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.ProbeConcurrency < 1 || c.ProbeConcurrency > 16 {
		return fmt.Errorf("%w: got %d", errProbeConcurrencyOutOfRange, c.ProbeConcurrency)
	}

	if c.AnalyzeTimeout <= 0 {
		return fmt.Errorf("%w: got %s", errInvalidAnalyzeTimeout, c.AnalyzeTimeout)
	}

	if c.RedisDB < 0 {
		return fmt.Errorf("%w: got %d", errInvalidRedisDB, c.RedisDB)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

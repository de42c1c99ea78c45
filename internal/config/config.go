package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv       string
	DBPath       string
	DBDriver     string
	RedisAddr    string
	HTTPPort     int
	CacheTTL     time.Duration
	RateLimitRPS float64
	RateBurst    int
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		DBPath:       getEnv("DB_PATH", "./data/reviews.db"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:     getEnvInt("HTTP_PORT", 8080),
		CacheTTL:     getEnvDuration("CACHE_TTL", 10*time.Minute),
		RateLimitRPS: getEnvFloat("RATE_LIMIT_RPS", 2),
		RateBurst:    getEnvInt("RATE_LIMIT_BURST", 5),
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return val
}

func getEnvFloat(key string, fallback float64) float64 {
	val, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return val
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return val
}

// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerSecond() float64
	GetRateLimitBurst() int
}

// RedisConfig provides settings for the Redis cache.
type RedisConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	IsRedisEnabled() bool
}

// ModelConfig provides settings for the closing-probability model.
type ModelConfig interface {
	GetModelDir() string
	GetRetrainMaxAgeDays() int
	GetMinTrainingRows() int
	GetSyntheticSamples() int
	GetSyntheticPositiveRate() float64
}

// SchedulerConfig provides settings for the asynq scheduler/worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetRetrainCheckInterval() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ModelDir              string
	RetrainMaxAgeDays     int
	MinTrainingRows       int
	SyntheticSamples      int
	SyntheticPositiveRate float64
	AsynqQueueName        string
	AsynqConcurrency      int
	RetrainCheckInterval  time.Duration
	RateLimitPerSecond    float64
	RateLimitBurst        int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRateLimitPerSecond() float64 { return c.RateLimitPerSecond }
func (c *Config) GetRateLimitBurst() int         { return c.RateLimitBurst }

// RedisConfig implementation
func (c *Config) GetRedisAddr() string     { return c.RedisAddr }
func (c *Config) GetRedisPassword() string { return c.RedisPassword }
func (c *Config) GetRedisDB() int          { return c.RedisDB }
func (c *Config) IsRedisEnabled() bool     { return c.RedisAddr != "" }

// ModelConfig implementation
func (c *Config) GetModelDir() string               { return c.ModelDir }
func (c *Config) GetRetrainMaxAgeDays() int         { return c.RetrainMaxAgeDays }
func (c *Config) GetMinTrainingRows() int           { return c.MinTrainingRows }
func (c *Config) GetSyntheticSamples() int          { return c.SyntheticSamples }
func (c *Config) GetSyntheticPositiveRate() float64 { return c.SyntheticPositiveRate }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetRetrainCheckInterval() time.Duration { return c.RetrainCheckInterval }

// Load reads configuration from the environment, with .env support for
// local development. The database is optional: without DATABASE_URL the
// service runs scoring-only, with no snapshot persistence or stored
// training outcomes.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               mustInt(getEnv("REDIS_DB", "0")),
		ModelDir:              getEnv("MODEL_DIR", "data/model"),
		RetrainMaxAgeDays:     mustInt(getEnv("MODEL_RETRAIN_MAX_AGE_DAYS", "30")),
		MinTrainingRows:       mustInt(getEnv("MODEL_MIN_TRAINING_ROWS", "200")),
		SyntheticSamples:      mustInt(getEnv("MODEL_SYNTHETIC_SAMPLES", "1000")),
		SyntheticPositiveRate: mustFloat(getEnv("MODEL_SYNTHETIC_POSITIVE_RATE", "0.25")),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "leadqual"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		RetrainCheckInterval:  mustDuration(getEnv("MODEL_RETRAIN_CHECK_INTERVAL", "6h")),
		RateLimitPerSecond:    mustFloat(getEnv("RATE_LIMIT_PER_SECOND", "20")),
		RateLimitBurst:        mustInt(getEnv("RATE_LIMIT_BURST", "40")),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

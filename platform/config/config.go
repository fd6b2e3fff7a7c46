// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// AgencyAPIConfig provides settings for the agency REST backend client.
type AgencyAPIConfig interface {
	GetAgencyAPIBaseURL() string
	GetAgencyAPITimeout() time.Duration
	GetAgencyUploadTimeout() time.Duration
}

// AgencyServiceTokenConfig provides the machine token used by background jobs
// that call the agency backend without a user session (catalog refresh).
type AgencyServiceTokenConfig interface {
	GetAgencyServiceToken() string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// CatalogConfig provides settings for the reference catalog cache.
type CatalogConfig interface {
	GetRedisURL() string
	GetCatalogRefreshInterval() time.Duration
	GetCatalogCacheTTL() time.Duration
}

// SessionConfig provides settings for the in-memory wizard session registry.
type SessionConfig interface {
	GetSessionTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	AgencyAPIBaseURL       string
	AgencyAPITimeout       time.Duration
	AgencyUploadTimeout    time.Duration
	AgencyServiceToken     string
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	CatalogRefreshInterval time.Duration
	CatalogCacheTTL        time.Duration
	SessionTTL             time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// AgencyAPIConfig implementation
func (c *Config) GetAgencyAPIBaseURL() string           { return c.AgencyAPIBaseURL }
func (c *Config) GetAgencyAPITimeout() time.Duration    { return c.AgencyAPITimeout }
func (c *Config) GetAgencyUploadTimeout() time.Duration { return c.AgencyUploadTimeout }

// AgencyServiceTokenConfig implementation
func (c *Config) GetAgencyServiceToken() string { return c.AgencyServiceToken }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// CatalogConfig implementation
func (c *Config) GetCatalogRefreshInterval() time.Duration { return c.CatalogRefreshInterval }
func (c *Config) GetCatalogCacheTTL() time.Duration        { return c.CatalogCacheTTL }

// SessionConfig implementation
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AgencyAPIBaseURL:       strings.TrimRight(getEnv("AGENCY_API_BASE_URL", ""), "/"),
		AgencyAPITimeout:       mustDuration(getEnv("AGENCY_API_TIMEOUT", "10s")),
		AgencyUploadTimeout:    mustDuration(getEnv("AGENCY_UPLOAD_TIMEOUT", "60s")),
		AgencyServiceToken:     getEnv("AGENCY_SERVICE_TOKEN", ""),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		CatalogRefreshInterval: mustDuration(getEnv("CATALOG_REFRESH_INTERVAL", "30s")),
		CatalogCacheTTL:        mustDuration(getEnv("CATALOG_CACHE_TTL", "5m")),
		SessionTTL:             mustDuration(getEnv("WIZARD_SESSION_TTL", "2h")),
	}

	if cfg.AgencyAPIBaseURL == "" {
		return nil, fmt.Errorf("AGENCY_API_BASE_URL is required")
	}
	if cfg.AgencyAPITimeout <= 0 {
		return nil, fmt.Errorf("AGENCY_API_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultClientServiceURL = "http://localhost:8080"
	defaultLookupTimeout    = 3 * time.Second
	defaultShutdownDelay    = 10 * time.Second
	defaultPageLimit        = 20
	defaultIdempotencyTTL   = 24 * time.Hour

	// MaxPageLimit is the hard cap on page sizes accepted by list endpoints.
	MaxPageLimit = 100

	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	lookupSecondsEnvVar    = "LOOKUP_TIMEOUT_SECONDS"
	lookupDurationEnvVar   = "LOOKUP_TIMEOUT"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures runtime configuration loaded from environment variables.
// Both service binaries share the same shape; fields a binary does not need
// are simply ignored by it.
type Config struct {
	AppName          string
	AppEnv           string
	Port             string
	LogLevel         string
	DatabaseURL      string
	RedisURL         string
	ClientServiceURL string
	LookupTimeout    time.Duration
	ShutdownPeriod   time.Duration
	IdempotencyTTL   time.Duration
	PageLimit        int
}

// Load reads configuration values from the environment and populates a
// Config instance for the named service.
func Load(appName string) (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", appName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ClientServiceURL: getEnv("CLIENT_SERVICE_URL", defaultClientServiceURL),
		LookupTimeout:    defaultLookupTimeout,
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		PageLimit:        defaultPageLimit,
	}

	if v := os.Getenv(lookupSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", lookupSecondsEnvVar, err)
		}
		cfg.LookupTimeout = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(lookupDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", lookupDurationEnvVar, err)
		}
		cfg.LookupTimeout = d
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv("PAGE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PAGE_LIMIT: %w", err)
		}
		if limit < 1 {
			return Config{}, fmt.Errorf("PAGE_LIMIT must be positive")
		}
		cfg.PageLimit = limit
	}
	if cfg.PageLimit > MaxPageLimit {
		cfg.PageLimit = MaxPageLimit
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

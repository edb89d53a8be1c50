package config

import (
	"errors"
	"fmt"
	"os"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

// CacheBackend selects the store implementation backing the layer.
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendTTL    CacheBackend = "ttl"
	CacheBackendRedis  CacheBackend = "redis"
)

type Config struct {
	port            string
	upstreamBaseURL string
	upstreamAPIKey  string
	cacheBackend    CacheBackend
	redisAddr       string
	sentryDSN       string
	env             environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) UpstreamBaseURL() string {
	return c.upstreamBaseURL
}

func (c *Config) UpstreamAPIKey() string {
	return c.upstreamAPIKey
}

func (c *Config) CacheBackend() CacheBackend {
	return c.cacheBackend
}

func (c *Config) RedisAddr() string {
	return c.redisAddr
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, cacheBackend: %s, upstreamBaseURL: %s, ...}",
		string(c.env), c.port, string(c.cacheBackend), c.upstreamBaseURL,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("BACKSTOP_ENVIRONMENT")
	if !ok {
		return missingKey("BACKSTOP_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: BACKSTOP_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cacheBackend := CacheBackendMemory
	if rawBackend, ok := os.LookupEnv("CACHE_BACKEND"); ok {
		switch CacheBackend(rawBackend) {
		case CacheBackendMemory, CacheBackendTTL, CacheBackendRedis:
			cacheBackend = CacheBackend(rawBackend)
		default:
			return Config{}, fmt.Errorf("%w: CACHE_BACKEND (%s)", ErrInvalidValue, rawBackend)
		}
	}

	upstreamBaseURL := os.Getenv("UPSTREAM_BASE_URL")
	upstreamAPIKey := os.Getenv("UPSTREAM_API_KEY")
	redisAddr := os.Getenv("REDIS_ADDR")
	sentryDSN := os.Getenv("SENTRY_DSN")

	if env == production || env == staging {
		if upstreamBaseURL == "" {
			return missingKey("UPSTREAM_BASE_URL")
		}
		if upstreamAPIKey == "" {
			return missingKey("UPSTREAM_API_KEY")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	if cacheBackend == CacheBackendRedis && redisAddr == "" {
		return missingKey("REDIS_ADDR")
	}

	return Config{
		port:            port,
		upstreamBaseURL: upstreamBaseURL,
		upstreamAPIKey:  upstreamAPIKey,
		cacheBackend:    cacheBackend,
		redisAddr:       redisAddr,
		sentryDSN:       sentryDSN,
		env:             env,
	}, nil
}

// Package config loads storefront client configuration from the environment
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrorPolicy decides what a store does with a failed background refresh.
type ErrorPolicy string

const (
	// PolicyRetainSilent logs the failure and keeps the previous data.
	PolicyRetainSilent ErrorPolicy = "retain-silent"
	// PolicySurface keeps the previous data and returns the error to the caller.
	PolicySurface ErrorPolicy = "surface"
)

// ParseErrorPolicy parses a policy name.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyRetainSilent, PolicySurface:
		return p, nil
	case "":
		return PolicyRetainSilent, nil
	default:
		return "", fmt.Errorf("unknown refresh error policy %q", s)
	}
}

// Config holds all client configuration
type Config struct {
	API     APIConfig
	State   StateConfig
	Stores  StoresConfig
	Storage StorageConfig
	Logging LoggingConfig
	Metrics MetricsConfig
}

type APIConfig struct {
	BaseURL string
	Version string
	APIKey  string
	// Timeout of zero leaves requests bounded only by the transport.
	Timeout time.Duration
}

type StateConfig struct {
	// Path of the SQLite file holding persisted client state; empty keeps it in memory.
	Path string
}

type StoresConfig struct {
	RefreshErrorPolicy ErrorPolicy
}

type StorageConfig struct {
	GCSBucket      string
	GCSCredentials string
	GCSPublic      bool
}

type LoggingConfig struct {
	Level string
}

type MetricsConfig struct {
	Addr string
}

// BasePath returns the versioned API root, e.g. https://host/api/v1.
func (a APIConfig) BasePath() string {
	return strings.TrimRight(a.BaseURL, "/") + "/api/" + strings.Trim(a.Version, "/")
}

// Load reads configuration from an optional .env file and the environment
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only
func FromEnv() *Config {
	policy, err := ParseErrorPolicy(getEnv("STOREFRONT_REFRESH_ERROR_POLICY", string(PolicyRetainSilent)))
	if err != nil {
		policy = ErrorPolicy(getEnv("STOREFRONT_REFRESH_ERROR_POLICY", ""))
	}
	return &Config{
		API: APIConfig{
			BaseURL: getEnv("STOREFRONT_API_BASE_URL", "https://travel-journal-api-bootcamp.do.dibimbing.id"),
			Version: getEnv("STOREFRONT_API_VERSION", "v1"),
			APIKey:  getEnv("STOREFRONT_API_KEY", ""),
			Timeout: parseDuration(getEnv("STOREFRONT_HTTP_TIMEOUT", "0"), 0),
		},
		State: StateConfig{
			Path: getEnv("STOREFRONT_STATE_PATH", ""),
		},
		Stores: StoresConfig{
			RefreshErrorPolicy: policy,
		},
		Storage: StorageConfig{
			GCSBucket:      getEnv("STOREFRONT_GCS_BUCKET", ""),
			GCSCredentials: getEnv("STOREFRONT_GCS_CREDENTIALS", ""),
			GCSPublic:      parseBool(getEnv("STOREFRONT_GCS_PUBLIC", "true"), true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("STOREFRONT_METRICS_ADDR", ""),
		},
	}
}

// Validate checks values that would otherwise fail on first use
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("STOREFRONT_API_BASE_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if strings.Trim(c.API.Version, "/") == "" {
		return fmt.Errorf("STOREFRONT_API_VERSION must not be empty")
	}
	if _, err := ParseErrorPolicy(string(c.Stores.RefreshErrorPolicy)); err != nil {
		return err
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("STOREFRONT_HTTP_TIMEOUT must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// A bare number is seconds
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

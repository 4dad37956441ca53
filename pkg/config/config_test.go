package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "")
	t.Setenv("STOREFRONT_REFRESH_ERROR_POLICY", "")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://travel-journal-api-bootcamp.do.dibimbing.id/api/v1", cfg.API.BasePath())
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, PolicyRetainSilent, cfg.Stores.RefreshErrorPolicy)
	assert.True(t, cfg.Storage.GCSPublic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "http://localhost:9000/")
	t.Setenv("STOREFRONT_API_VERSION", "v2")
	t.Setenv("STOREFRONT_API_KEY", "k")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "15")
	t.Setenv("STOREFRONT_REFRESH_ERROR_POLICY", "surface")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:9000/api/v2", cfg.API.BasePath())
	assert.Equal(t, "k", cfg.API.APIKey)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, PolicySurface, cfg.Stores.RefreshErrorPolicy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://host" }},
		{"empty version", func(c *Config) { c.API.Version = "/" }},
		{"unknown policy", func(c *Config) { c.Stores.RefreshErrorPolicy = "explode" }},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STOREFRONT_REFRESH_ERROR_POLICY", "")
			cfg := FromEnv()
			cfg.API.BaseURL = "https://example.com"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseErrorPolicy(t *testing.T) {
	p, err := ParseErrorPolicy(" Surface ")
	require.NoError(t, err)
	assert.Equal(t, PolicySurface, p)

	p, err = ParseErrorPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyRetainSilent, p)

	_, err = ParseErrorPolicy("loud")
	assert.Error(t, err)
}

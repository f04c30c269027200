package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "dispatch", cfg.AppName)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, 20.0, cfg.QuoteRateLimitPerSecond)
	assert.Equal(t, 40, cfg.QuoteRateLimitBurst)
	assert.False(t, cfg.SeedDefaultPricing)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "50")
	t.Setenv("QUOTE_RATE_LIMIT_PER_SECOND", "5.5")
	t.Setenv("SEED_DEFAULT_PRICING", "yes")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, 50, cfg.DBMaxOpenConn)
	assert.Equal(t, 5.5, cfg.QuoteRateLimitPerSecond)
	assert.True(t, cfg.SeedDefaultPricing)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("DATABASE_MAX_OPEN_CONN", "lots")
	t.Setenv("QUOTE_RATE_LIMIT_PER_SECOND", "fast")
	t.Setenv("SEED_DEFAULT_PRICING", "maybe")

	cfg := Load()

	assert.Equal(t, 25, cfg.DBMaxOpenConn)
	assert.Equal(t, 20.0, cfg.QuoteRateLimitPerSecond)
	assert.False(t, cfg.SeedDefaultPricing)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
weather:
  refresh:
    backoff: [2s, 5s]
recommendation:
  cacheMaxEntries: 32
  cacheTtl: 30m
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("RECOMMENDATION_CACHE_MAX_ENTRIES", "64")
	t.Setenv("KMA_SERVICE_KEY", "kma-key")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, cfg.Weather.Refresh.Backoff)
	require.Equal(t, 64, cfg.Recommendation.CacheMaxEntries)
	require.Equal(t, 30*time.Minute, cfg.Recommendation.CacheTTL)
	require.Equal(t, "kma-key", cfg.Weather.ServiceKey)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, []int{6, 18}, cfg.Weather.MidRange.IssueHours)
}

func TestEnvBackoffOverride(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("WEATHER_REFRESH_BACKOFF", "500ms,bogus,2s")
	applyEnvOverrides(cfg)
	require.Equal(t, []time.Duration{500 * time.Millisecond, 2 * time.Second}, cfg.Weather.Refresh.Backoff)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty address":       func(c *Config) { c.HTTP.Address = "" },
		"bad issue hour":      func(c *Config) { c.Weather.ShortRange.IssueHours = []int{24} },
		"inverted horizon":    func(c *Config) { c.Weather.MidRange.MinDays = 11 },
		"zero attempts":       func(c *Config) { c.Weather.Refresh.MaxAttempts = 0 },
		"negative backoff":    func(c *Config) { c.Weather.Refresh.Backoff = []time.Duration{-time.Second} },
		"count over limit":    func(c *Config) { c.Recommendation.DefaultCount = 11 },
		"valkey without addr": func(c *Config) { c.Valkey.Enabled = true },
		"missing schedule":    func(c *Config) { c.Weather.Refresh.Schedule = "" },
	}
	require.NoError(t, defaultConfig().Validate())
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

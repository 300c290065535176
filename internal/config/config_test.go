package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "synthetic", cfg.Provider)
	assert.Equal(t, 90, cfg.LookbackDays)
	assert.Equal(t, 10000, cfg.Simulations)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 5, cfg.GNews.MaxArticles)
	assert.Len(t, cfg.Pools.Low, 20)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"}, cfg.Pools.Fallback)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quantrisk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: csv
lookback_days: 30
csv:
  dir: /tmp/prices
gnews:
  max_articles: 3
`), 0644))

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GNEWS_API_KEY=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("GNEWS_API_KEY") })

	t.Setenv("QUANTRISK_SIMULATIONS", "2500")
	t.Setenv("POLYGON_API_KEY", "poly-key")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Provider)
	assert.Equal(t, 30, cfg.LookbackDays)
	assert.Equal(t, "/tmp/prices", cfg.CSV.Dir)
	assert.Equal(t, 3, cfg.GNews.MaxArticles)
	assert.Equal(t, 2500, cfg.Simulations)
	assert.Equal(t, "poly-key", cfg.Polygon.APIKey)
	assert.Equal(t, "from-dotenv", cfg.GNews.APIKey)
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("QUANTRISK_PROVIDER", "bloomberg")
	_, err := Load("", "")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestDefaultMatchesLoad(t *testing.T) {
	loaded, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, loaded.Provider, Default().Provider)
	assert.Equal(t, loaded.Pools, Default().Pools)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown fallback", func(c *Config) { c.Fallback = "yahoo" }, "unknown fallback provider"},
		{"zero lookback", func(c *Config) { c.LookbackDays = 0 }, "lookback_days"},
		{"zero simulations", func(c *Config) { c.Simulations = 0 }, "simulations must be positive"},
		{"cap below default", func(c *Config) { c.SimulationsMax = c.Simulations - 1 }, "simulations_max"},
		{"empty pool", func(c *Config) { c.Pools.Medium = nil }, "pools.medium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoadSimulationsMax(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 1000000, cfg.SimulationsMax)

	t.Setenv("QUANTRISK_SIMULATIONS_MAX", "500")
	_, err = Load("", "")
	assert.ErrorContains(t, err, "simulations_max")
}

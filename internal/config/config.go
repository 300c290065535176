// Package config loads runtime settings from an optional YAML file, a .env
// file and the process environment. API keys are only ever read from these
// sources.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// QUANTRISK_LOOKBACK_DAYS or QUANTRISK_GNEWS_API_KEY.
const EnvPrefix = "QUANTRISK"

// Config is the full application configuration.
type Config struct {
	Provider     string  `mapstructure:"provider"`
	Fallback     string  `mapstructure:"fallback"`
	LookbackDays int     `mapstructure:"lookback_days"`
	Simulations  int     `mapstructure:"simulations"`
	Seed         uint64  `mapstructure:"seed"`
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
	Verbosity    int     `mapstructure:"verbosity"`

	// SimulationsMax caps the path count a single API request may ask for.
	SimulationsMax int `mapstructure:"simulations_max"`

	Massive    APIConfig       `mapstructure:"massive"`
	Polygon    APIConfig       `mapstructure:"polygon"`
	TwelveData APIConfig       `mapstructure:"twelvedata"`
	GNews      GNewsConfig     `mapstructure:"gnews"`
	CSV        CSVConfig       `mapstructure:"csv"`
	Synthetic  SyntheticConfig `mapstructure:"synthetic"`
	Server     ServerConfig    `mapstructure:"server"`
	Report     ReportConfig    `mapstructure:"report"`
	Pools      PoolsConfig     `mapstructure:"pools"`
}

// APIConfig holds vendor credentials. BaseURL is only honoured by the
// Twelve Data provider; the Massive and Polygon SDKs use fixed hosts.
type APIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type GNewsConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	MaxArticles int    `mapstructure:"max_articles"`
}

type CSVConfig struct {
	Dir string `mapstructure:"dir"`
}

type SyntheticConfig struct {
	Seed uint64 `mapstructure:"seed"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// PoolsConfig holds the ticker universes the portfolio generator draws from.
type PoolsConfig struct {
	Low      []string `mapstructure:"low"`
	Medium   []string `mapstructure:"medium"`
	High     []string `mapstructure:"high"`
	Fallback []string `mapstructure:"fallback"`
}

// Load reads configuration. envFile and path are both optional; a missing
// envFile is ignored, a missing path is an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s file: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// vendor-conventional names, so an existing POLYGON_API_KEY keeps working
	bindings := map[string]string{
		"massive.api_key":    "MASSIVE_API_KEY",
		"polygon.api_key":    "POLYGON_API_KEY",
		"twelvedata.api_key": "TWELVEDATA_API_KEY",
		"gnews.api_key":      "GNEWS_API_KEY",
	}
	for key, env := range bindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and an empty
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if !knownProvider(c.Provider) {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Fallback != "" && !knownProvider(c.Fallback) {
		return fmt.Errorf("unknown fallback provider %q", c.Fallback)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive, got %d", c.LookbackDays)
	}
	if c.Simulations <= 0 {
		return fmt.Errorf("simulations must be positive, got %d", c.Simulations)
	}
	if c.SimulationsMax < c.Simulations {
		return fmt.Errorf("simulations_max (%d) must be at least simulations (%d)", c.SimulationsMax, c.Simulations)
	}
	pools := []struct {
		name    string
		tickers []string
	}{
		{"low", c.Pools.Low},
		{"medium", c.Pools.Medium},
		{"high", c.Pools.High},
	}
	for _, pool := range pools {
		if len(pool.tickers) == 0 {
			return fmt.Errorf("pools.%s must not be empty", pool.name)
		}
	}
	return nil
}

func knownProvider(name string) bool {
	switch name {
	case "massive", "polygon", "twelvedata", "csv", "synthetic":
		return true
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "synthetic")
	v.SetDefault("fallback", "")
	v.SetDefault("lookback_days", 90)
	v.SetDefault("simulations", 10000)
	v.SetDefault("simulations_max", 1000000)
	v.SetDefault("seed", 42)
	v.SetDefault("risk_free_rate", 0.05)
	v.SetDefault("verbosity", 1)

	v.SetDefault("massive.api_key", "")
	v.SetDefault("polygon.api_key", "")
	v.SetDefault("twelvedata.api_key", "")
	v.SetDefault("twelvedata.base_url", "https://api.twelvedata.com")
	v.SetDefault("gnews.api_key", "")
	v.SetDefault("gnews.base_url", "https://gnews.io/api/v4")
	v.SetDefault("gnews.max_articles", 5)
	v.SetDefault("csv.dir", "data")
	v.SetDefault("synthetic.seed", 7)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("report.dir", "out")

	v.SetDefault("pools.low", []string{
		"AAPL", "MSFT", "JNJ", "PG", "KO", "PEP", "WMT", "V", "MA", "COST",
		"HD", "UNH", "MRK", "ABT", "LLY", "MCD", "T", "VZ", "CSCO", "MDT",
	})
	v.SetDefault("pools.medium", []string{
		"GOOGL", "AMZN", "META", "DIS", "NVDA", "ADBE", "CRM", "INTC", "PYPL", "NFLX",
		"AVGO", "QCOM", "TXN", "SBUX", "BKNG", "NOW", "UBER", "AMAT", "ORCL", "IBM",
	})
	v.SetDefault("pools.high", []string{
		"TSLA", "AMD", "PLTR", "NIO", "COIN", "RIVN", "SQ", "ROKU", "SPOT", "AFRM",
		"UPST", "BIDU", "SNOW", "SHOP", "ARKK", "DOCN", "TWLO", "NET", "CRWD", "DDOG",
	})
	v.SetDefault("pools.fallback", []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"})
}

package data

import (
	"fmt"

	"github.com/contactkeval/quant-risk/internal/config"
)

// FromConfig builds the configured provider with its optional fallback.
func FromConfig(cfg *config.Config) (Provider, error) {
	primary, err := byName(cfg, cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.Fallback == "" || cfg.Fallback == cfg.Provider {
		return primary, nil
	}
	secondary, err := byName(cfg, cfg.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return WithSecondary(primary, secondary), nil
}

func byName(cfg *config.Config, name string) (Provider, error) {
	switch name {
	case "massive":
		return NewMassiveDataProvider(cfg.Massive.APIKey), nil
	case "polygon":
		return NewPolygonDataProvider(cfg.Polygon.APIKey), nil
	case "twelvedata":
		return NewTwelveDataProvider(cfg.TwelveData.BaseURL, cfg.TwelveData.APIKey), nil
	case "csv":
		return NewLocalCSVDataProvider(cfg.CSV.Dir), nil
	case "synthetic":
		return NewSyntheticProvider(cfg.Synthetic.Seed), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

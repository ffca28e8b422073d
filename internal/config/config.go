// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	TemporalHostPort string `env:"TEMPORAL_HOST_PORT" envDefault:"localhost:7233"`
	APIAddr          string `env:"API_ADDR" envDefault:":8090"`

	// StoreURL empty selects the in-memory store (local dev).
	StoreURL    string `env:"STORE_URL"`
	StoreAPIKey string `env:"STORE_API_KEY"`

	AutoApproveLimit string `env:"WITHDRAW_AUTO_APPROVE_LIMIT" envDefault:"100"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := decimal.NewFromString(cfg.AutoApproveLimit); err != nil {
		return Config{}, fmt.Errorf("invalid WITHDRAW_AUTO_APPROVE_LIMIT %q: %w", cfg.AutoApproveLimit, err)
	}
	return cfg, nil
}

// WithdrawLimit returns the amount at or below which a withdrawal skips
// human review. Load already validated the string.
func (c Config) WithdrawLimit() decimal.Decimal {
	d, _ := decimal.NewFromString(c.AutoApproveLimit)
	return d
}

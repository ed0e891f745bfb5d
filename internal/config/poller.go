package config

import (
	"errors"
	"time"
)

const (
	defaultBlockPollingInterval      = 30 * time.Second
	defaultSettlementPollingInterval = 10 * time.Second
	defaultMaxSettlementsPerRun      = 50
)

type PollerConfig struct {
	BlockPollingInterval      time.Duration `mapstructure:"block-polling-interval"`
	SettlementPollingInterval time.Duration `mapstructure:"settlement-polling-interval"`
	MaxSettlementsPerRun      int           `mapstructure:"max-settlements-per-run"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.BlockPollingInterval <= 0 {
		return errors.New("block-polling-interval must be positive")
	}

	if cfg.SettlementPollingInterval <= 0 {
		return errors.New("settlement-polling-interval must be positive")
	}

	if cfg.MaxSettlementsPerRun < 0 {
		return errors.New("max-settlements-per-run must not be negative")
	}

	if cfg.MaxSettlementsPerRun == 0 {
		cfg.MaxSettlementsPerRun = defaultMaxSettlementsPerRun
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	defaultFeederPollInterval = 10 * time.Second
	defaultRequestTimeout     = 10 * time.Second
	defaultFeederRetryTimes   = 3
	defaultFeederRetryDelay   = time.Second
)

// FeederConfig configures the oracle-node loop that fetches exchange prices
// and submits them to an aggregator.
type FeederConfig struct {
	AggregatorURL  string        `mapstructure:"aggregator-url"`
	Exchanges      []string      `mapstructure:"exchanges"`
	NodeID         string        `mapstructure:"node-id"`
	SigningKey     string        `mapstructure:"signing-key"`
	PollInterval   time.Duration `mapstructure:"poll-interval"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	MaxRetryTimes  uint          `mapstructure:"max-retry-times"`
	RetryInterval  time.Duration `mapstructure:"retry-interval"`
}

func (cfg *FeederConfig) Validate() error {
	if cfg.AggregatorURL == "" {
		return errors.New("aggregator-url is required")
	}
	if _, err := url.ParseRequestURI(cfg.AggregatorURL); err != nil {
		return fmt.Errorf("invalid aggregator-url: %w", err)
	}

	if len(cfg.Exchanges) == 0 {
		return errors.New("at least one exchange is required")
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultFeederPollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = defaultFeederRetryTimes
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultFeederRetryDelay
	}

	return nil
}

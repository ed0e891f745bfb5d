package config

import (
	"errors"
	"time"
)

const (
	defaultCapacity            = 100
	defaultFreshnessWindow     = 120 * time.Second
	defaultMaxTimestampSpread  = 60 * time.Second
	defaultMaxDeviationPercent = 5.0
	defaultMinPrice            = 10_000.0
	defaultMaxPrice            = 500_000.0
	// one collection minute plus one minute of grace
	defaultNodeLivenessWindow = 120 * time.Second
)

// AggregatorConfig holds the consensus rules applied to submitted prices.
type AggregatorConfig struct {
	RequiredExchanges   []string      `mapstructure:"required-exchanges"`
	Capacity            int           `mapstructure:"capacity"`
	FreshnessWindow     time.Duration `mapstructure:"freshness-window"`
	MaxTimestampSpread  time.Duration `mapstructure:"max-timestamp-spread"`
	MaxDeviationPercent float64       `mapstructure:"max-deviation-percent"`
	MinPrice            float64       `mapstructure:"min-price"`
	MaxPrice            float64       `mapstructure:"max-price"`
	NodeLivenessWindow  time.Duration `mapstructure:"node-liveness-window"`
	RequireSignatures   bool          `mapstructure:"require-signatures"`
}

func DefaultAggregatorConfig() *AggregatorConfig {
	return &AggregatorConfig{
		RequiredExchanges:   []string{"binance", "coinbase", "kraken"},
		Capacity:            defaultCapacity,
		FreshnessWindow:     defaultFreshnessWindow,
		MaxTimestampSpread:  defaultMaxTimestampSpread,
		MaxDeviationPercent: defaultMaxDeviationPercent,
		MinPrice:            defaultMinPrice,
		MaxPrice:            defaultMaxPrice,
		NodeLivenessWindow:  defaultNodeLivenessWindow,
	}
}

// Quorum is ceil(2/3 * len(RequiredExchanges)).
func (cfg *AggregatorConfig) Quorum() int {
	return (len(cfg.RequiredExchanges)*2 + 2) / 3
}

func (cfg *AggregatorConfig) Validate() error {
	if len(cfg.RequiredExchanges) == 0 {
		return errors.New("required-exchanges must not be empty")
	}

	if cfg.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}

	if cfg.FreshnessWindow <= 0 {
		return errors.New("freshness-window must be positive")
	}

	if cfg.MaxTimestampSpread <= 0 {
		return errors.New("max-timestamp-spread must be positive")
	}

	if cfg.MaxDeviationPercent <= 0 {
		return errors.New("max-deviation-percent must be positive")
	}

	if cfg.MinPrice <= 0 || cfg.MaxPrice <= cfg.MinPrice {
		return errors.New("price band must satisfy 0 < min-price < max-price")
	}

	if cfg.NodeLivenessWindow < cfg.FreshnessWindow {
		return errors.New("node-liveness-window must not be shorter than freshness-window")
	}

	return nil
}

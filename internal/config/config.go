package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const envPrefix = "ORACLE_VM"

type Config struct {
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	BTC        BTCConfig        `mapstructure:"btc"`
	Db         DbConfig         `mapstructure:"db"`
	Queue      *QueueConfig     `mapstructure:"queue"`
	Poller     PollerConfig     `mapstructure:"poller"`
	Server     ServerConfig     `mapstructure:"server"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Prover     ProverConfig     `mapstructure:"prover"`
	Feeder     *FeederConfig    `mapstructure:"feeder"`
	LogLevel   string           `mapstructure:"log-level"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Aggregator.Validate(); err != nil {
		return fmt.Errorf("invalid aggregator config: %w", err)
	}

	if err := cfg.BTC.Validate(); err != nil {
		return fmt.Errorf("invalid btc config: %w", err)
	}

	if err := cfg.Db.Validate(); err != nil {
		return fmt.Errorf("invalid db config: %w", err)
	}

	// queue is optional, proofs are only persisted when it is absent
	if cfg.Queue != nil {
		if err := cfg.Queue.Validate(); err != nil {
			return fmt.Errorf("invalid queue config: %w", err)
		}
	}

	if err := cfg.Poller.Validate(); err != nil {
		return fmt.Errorf("invalid poller config: %w", err)
	}

	if err := cfg.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := cfg.Prover.Validate(); err != nil {
		return fmt.Errorf("invalid prover config: %w", err)
	}

	if cfg.Feeder != nil {
		if err := cfg.Feeder.Validate(); err != nil {
			return fmt.Errorf("invalid feeder config: %w", err)
		}
	}

	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
	}

	return nil
}

// New reads the config file at cfgFile, applies ORACLE_VM_* environment
// overrides and validates the result.
func New(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(cfgFile)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewFeeder reads only the feeder section, so oracle nodes can run without
// the aggregator's storage and bitcoin settings.
func NewFeeder(cfgFile string) (*FeederConfig, string, error) {
	v := viper.New()
	v.SetConfigFile(cfgFile)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("log-level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, "", err
	}

	var cfg FeederConfig
	if err := v.UnmarshalKey("feeder", &cfg); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid feeder config: %w", err)
	}

	return &cfg, v.GetString("log-level"), nil
}

func setDefaults(v *viper.Viper) {
	agg := DefaultAggregatorConfig()
	v.SetDefault("aggregator.required-exchanges", agg.RequiredExchanges)
	v.SetDefault("aggregator.capacity", agg.Capacity)
	v.SetDefault("aggregator.freshness-window", agg.FreshnessWindow)
	v.SetDefault("aggregator.max-timestamp-spread", agg.MaxTimestampSpread)
	v.SetDefault("aggregator.max-deviation-percent", agg.MaxDeviationPercent)
	v.SetDefault("aggregator.min-price", agg.MinPrice)
	v.SetDefault("aggregator.max-price", agg.MaxPrice)
	v.SetDefault("aggregator.node-liveness-window", agg.NodeLivenessWindow)

	btc := DefaultBTCConfig()
	v.SetDefault("btc.rpchost", btc.RPCHost)
	v.SetDefault("btc.maxretrytimes", btc.MaxRetryTimes)
	v.SetDefault("btc.retryinterval", btc.RetryInterval)
	v.SetDefault("btc.netparams", btc.NetParams)

	v.SetDefault("poller.block-polling-interval", defaultBlockPollingInterval)
	v.SetDefault("poller.settlement-polling-interval", defaultSettlementPollingInterval)
	v.SetDefault("poller.max-settlements-per-run", defaultMaxSettlementsPerRun)

	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read-timeout", defaultServerTimeout)
	v.SetDefault("server.write-timeout", defaultServerTimeout)
	v.SetDefault("server.idle-timeout", defaultServerIdleTimeout)

	v.SetDefault("metrics.host", defaultMetricsHost)
	v.SetDefault("metrics.port", defaultMetricsPort)

	v.SetDefault("prover.backend", ProverBackendHash)
	v.SetDefault("prover.program-id", DefaultProgramID)
	v.SetDefault("prover.timeout", defaultProverTimeout)

	v.SetDefault("log-level", "info")
}

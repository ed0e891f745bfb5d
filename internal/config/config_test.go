package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Aggregator: *DefaultAggregatorConfig(),
		Db: DbConfig{
			Username: "test",
			Password: "test",
			Address:  "mongodb://localhost:27017",
			DbName:   "test",
		},
		BTC: BTCConfig{
			RPCHost:       "localhost:8332",
			RPCUser:       "test",
			RPCPass:       "test",
			MaxRetryTimes: 5,
			RetryInterval: 500 * time.Millisecond,
			NetParams:     "regtest",
		},
		Queue: &QueueConfig{
			User:      "test",
			Password:  "test",
			Url:       "localhost:5672",
			QueueName: "settlement_proofs",
		},
		Poller: PollerConfig{
			BlockPollingInterval:      30 * time.Second,
			SettlementPollingInterval: 10 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8081,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
		Prover: ProverConfig{
			Backend:   ProverBackendHash,
			ProgramID: DefaultProgramID,
			Timeout:   time.Minute,
		},
		LogLevel: "debug",
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, defaultPublishTimeout, cfg.Queue.PublishTimeout)
		assert.Equal(t, defaultMaxSettlementsPerRun, cfg.Poller.MaxSettlementsPerRun)
	})
	t.Run("queue is optional", func(t *testing.T) {
		cfg := validConfig()
		cfg.Queue = nil
		require.NoError(t, cfg.Validate())
	})
	t.Run("invalid log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.LogLevel = "loud"
		require.ErrorContains(t, cfg.Validate(), "invalid log level")
	})
	t.Run("invalid net params", func(t *testing.T) {
		cfg := validConfig()
		cfg.BTC.NetParams = "moonnet"
		require.ErrorContains(t, cfg.Validate(), "invalid net params")
	})
	t.Run("invalid db scheme", func(t *testing.T) {
		cfg := validConfig()
		cfg.Db.Address = "postgres://localhost"
		require.ErrorContains(t, cfg.Validate(), "invalid db address scheme")
	})
	t.Run("command backend needs program path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Prover.Backend = ProverBackendCommand
		require.ErrorContains(t, cfg.Validate(), "program-path is required")
	})
}

func TestAggregatorConfig(t *testing.T) {
	t.Run("quorum is two thirds rounded up", func(t *testing.T) {
		cases := map[int]int{1: 1, 2: 2, 3: 2, 4: 3, 5: 4, 6: 4, 7: 5}
		for n, quorum := range cases {
			cfg := DefaultAggregatorConfig()
			cfg.RequiredExchanges = make([]string, n)
			assert.Equal(t, quorum, cfg.Quorum(), "n=%d", n)
		}
	})
	t.Run("liveness window shorter than freshness", func(t *testing.T) {
		cfg := DefaultAggregatorConfig()
		cfg.NodeLivenessWindow = time.Second
		require.ErrorContains(t, cfg.Validate(), "node-liveness-window")
	})
	t.Run("inverted price band", func(t *testing.T) {
		cfg := DefaultAggregatorConfig()
		cfg.MinPrice, cfg.MaxPrice = 10, 5
		require.ErrorContains(t, cfg.Validate(), "price band")
	})
}

func TestNew(t *testing.T) {
	const content = `
btc:
  rpcuser: user
  rpcpass: pass
  netparams: regtest
db:
  username: user
  password: pass
  db-name: oracle
  address: mongodb://localhost:27017
aggregator:
  required-exchanges: [binance, coinbase, kraken, bitstamp]
  freshness-window: 90s
feeder:
  aggregator-url: http://localhost:8081
  exchanges: [binance]
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Run("full config with defaults", func(t *testing.T) {
		cfg, err := New(path)
		require.NoError(t, err)

		assert.Equal(t, 90*time.Second, cfg.Aggregator.FreshnessWindow)
		assert.Equal(t, 3, cfg.Aggregator.Quorum())
		assert.Equal(t, 100, cfg.Aggregator.Capacity)
		assert.Equal(t, 5.0, cfg.Aggregator.MaxDeviationPercent)
		assert.Equal(t, ProverBackendHash, cfg.Prover.Backend)
		assert.Nil(t, cfg.Queue)
		require.NotNil(t, cfg.Feeder)
	})
	t.Run("env override", func(t *testing.T) {
		t.Setenv("ORACLE_VM_SERVER_PORT", "9090")
		cfg, err := New(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
	})
	t.Run("feeder only", func(t *testing.T) {
		cfg, level, err := NewFeeder(path)
		require.NoError(t, err)
		assert.Equal(t, "info", level)
		assert.Equal(t, []string{"binance"}, cfg.Exchanges)
		assert.Equal(t, defaultFeederPollInterval, cfg.PollInterval)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "absent.yml"))
		require.Error(t, err)
	})
}

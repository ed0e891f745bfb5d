package config

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/oraclevm/oracle-vm/internal/utils"
)

const (
	// default rpc port of signet is 38332
	defaultBitcoindRpcHost = "127.0.0.1:38332"
	defaultMaxRetryTimes   = 5
	defaultRetryInterval   = 500 * time.Millisecond
	defaultNetParams       = "signet"
)

// BTCConfig defines configuration for the Bitcoin client
type BTCConfig struct {
	RPCHost       string        `mapstructure:"rpchost"`
	RPCUser       string        `mapstructure:"rpcuser"`
	RPCPass       string        `mapstructure:"rpcpass"`
	MaxRetryTimes uint          `mapstructure:"maxretrytimes"`
	RetryInterval time.Duration `mapstructure:"retryinterval"`
	NetParams     string        `mapstructure:"netparams"`
}

func DefaultBTCConfig() *BTCConfig {
	return &BTCConfig{
		RPCHost:       defaultBitcoindRpcHost,
		MaxRetryTimes: defaultMaxRetryTimes,
		RetryInterval: defaultRetryInterval,
		NetParams:     defaultNetParams,
	}
}

func (cfg *BTCConfig) ToConnConfig() *rpcclient.ConnConfig {
	return &rpcclient.ConnConfig{
		Host:                 cfg.RPCHost,
		User:                 cfg.RPCUser,
		Pass:                 cfg.RPCPass,
		DisableTLS:           true,
		DisableConnectOnNew:  true,
		DisableAutoReconnect: false,
		// only plain RPC calls are made, no notifications
		HTTPPostMode: true,
	}
}

func (cfg *BTCConfig) Validate() error {
	if cfg.RPCHost == "" {
		return fmt.Errorf("RPC host cannot be empty")
	}
	if cfg.RPCUser == "" {
		return fmt.Errorf("RPC user cannot be empty")
	}
	if cfg.RPCPass == "" {
		return fmt.Errorf("RPC password cannot be empty")
	}

	if cfg.MaxRetryTimes <= 0 {
		return fmt.Errorf("max retry times should be positive")
	}

	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("retry interval should be positive")
	}

	if _, ok := utils.GetValidNetParams()[cfg.NetParams]; !ok {
		return fmt.Errorf("invalid net params")
	}

	return nil
}

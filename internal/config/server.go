package config

import (
	"fmt"
	"net"
	"time"
)

const (
	defaultServerHost        = "0.0.0.0"
	defaultServerPort        = 8081
	defaultServerTimeout     = 10 * time.Second
	defaultServerIdleTimeout = 60 * time.Second

	defaultMetricsHost = "0.0.0.0"
	defaultMetricsPort = 2112
)

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle-timeout"`
}

func (cfg *ServerConfig) Validate() error {
	if err := validateHostPort(cfg.Host, cfg.Port); err != nil {
		return err
	}

	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	return nil
}

func (cfg *ServerConfig) Address() string {
	return net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
}

type MetricsConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (cfg *MetricsConfig) Validate() error {
	return validateHostPort(cfg.Host, cfg.Port)
}

func (cfg *MetricsConfig) GetMetricsPort() int {
	return cfg.Port
}

func validateHostPort(host string, port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("port number must be between 0 and 65535")
	}

	if net.ParseIP(host) == nil {
		return fmt.Errorf("invalid host: %v", host)
	}

	return nil
}

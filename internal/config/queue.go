package config

import (
	"errors"
	"time"
)

const defaultPublishTimeout = 5 * time.Second

// QueueConfig configures the RabbitMQ publisher for settlement proof events.
type QueueConfig struct {
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Url            string        `mapstructure:"url"`
	QueueName      string        `mapstructure:"queue-name"`
	PublishTimeout time.Duration `mapstructure:"publish-timeout"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.User == "" {
		return errors.New("missing queue user")
	}

	if cfg.Password == "" {
		return errors.New("missing queue password")
	}

	if cfg.Url == "" {
		return errors.New("missing queue url")
	}

	if cfg.QueueName == "" {
		return errors.New("missing queue name")
	}

	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}

	return nil
}

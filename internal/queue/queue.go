package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
)

// QueueManager publishes settlement proof events to RabbitMQ.
type QueueManager struct {
	cfg  *config.QueueConfig
	conn *amqp.Connection

	mu sync.Mutex // guards ch, channels are not safe for concurrent publishing
	ch *amqp.Channel
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	amqpURL := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Url,
	}

	conn, err := amqp.Dial(amqpURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue at %s: %w", cfg.Url, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "quorum"},
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	return &QueueManager{
		cfg:  cfg,
		conn: conn,
		ch:   ch,
	}, nil
}

func (qm *QueueManager) PublishSettlementProof(ctx context.Context, ev *SettlementProofEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement proof event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.PublishTimeout)
	defer cancel()

	qm.mu.Lock()
	err = qm.ch.PublishWithContext(ctx,
		"", // default exchange routes by queue name
		qm.cfg.QueueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Body:         body,
		},
	)
	qm.mu.Unlock()
	if err != nil {
		metrics.RecordQueueSendError()
		return fmt.Errorf("failed to publish settlement proof %s: %w", ev.ID, err)
	}

	log.Ctx(ctx).Debug().Str("id", ev.ID).Msg("settlement proof event published")
	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	qm.mu.Lock()
	defer qm.mu.Unlock()
	if err := qm.ch.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close queue channel")
	}
	if err := qm.conn.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close queue connection")
	}
}

package rabbitmq_producer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PublisherConfig - настройки издателя.
type PublisherConfig struct {
	ExchangeName string // пустая строка - default exchange
	ExchangeType string // direct, fanout, topic, headers
	Durable      bool
	// DeclareExchange: объявить обменник при создании издателя
	DeclareExchange bool

	Logger rabbitmq_common.Logger
}

// Validate проверяет согласованность настроек обменника.
func (c PublisherConfig) Validate() error {
	if !c.DeclareExchange {
		return nil
	}
	if c.ExchangeName == "" {
		return errors.New("producer: exchange name is required to declare an exchange")
	}
	switch c.ExchangeType {
	case amqp.ExchangeDirect, amqp.ExchangeFanout, amqp.ExchangeTopic, amqp.ExchangeHeaders:
		return nil
	}
	return fmt.Errorf("producer: unsupported exchange type %q", c.ExchangeType)
}

// ChannelProvider - источник каналов (ConnectionManager).
type ChannelProvider interface {
	GetChannel() (*amqp.Connection, *amqp.Channel, error)
}

// Publisher публикует сообщения в один обменник через собственный канал.
type Publisher struct {
	config PublisherConfig
	logger rabbitmq_common.Logger

	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
}

func NewPublisher(cfg PublisherConfig, provider ChannelProvider) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	conn, ch, err := provider.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("producer: failed to get channel from manager: %w", err)
	}

	if cfg.DeclareExchange {
		logger.Debug("Declaring exchange", "name", cfg.ExchangeName, "type", cfg.ExchangeType)
		err = ch.ExchangeDeclare(cfg.ExchangeName, cfg.ExchangeType, cfg.Durable, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("producer: failed to declare exchange '%s': %w", cfg.ExchangeName, err)
		}
	}

	return &Publisher{config: cfg, logger: logger, connection: conn, channel: ch}, nil
}

// Publish публикует сообщение в обменник издателя.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.connection == nil || p.connection.IsClosed() {
		return errors.New("producer: not connected or channel/connection is closed")
	}
	if err := p.channel.PublishWithContext(ctx, p.config.ExchangeName, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("producer: failed to publish message: %w", err)
	}
	return nil
}

// Close закрывает канал. Соединение принадлежит ConnectionManager.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	if err != nil {
		p.logger.Error(err, "Producer: error closing channel")
		return err
	}
	p.logger.Info("Producer closed")
	return nil
}

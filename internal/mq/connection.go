package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel — операции AMQP-канала, которые использует пакет.
// *amqp.Channel удовлетворяет интерфейсу.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// ChannelProvider выдаёт канал для выполнения операции.
type ChannelProvider interface {
	WithChannel(ctx context.Context, fn func(ch Channel) error) error
}

// Connection — AMQP соединение на время одной команды.
//
// CLI выполняет одну операцию и завершается, поэтому переподключения нет:
// при разрыве публикация возвращает ошибку, а сервис тегов её только логирует.
type Connection struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewConnection устанавливает соединение с RabbitMQ и открывает канал.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	logger.Debug("connected to RabbitMQ")

	return &Connection{
		logger:  logger,
		conn:    conn,
		channel: ch,
	}, nil
}

// WithChannel выполняет функцию с текущим каналом.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch Channel) error) error {
	c.mu.Lock()
	ch := c.channel
	closed := c.closed
	c.mu.Unlock()

	if closed || ch == nil {
		return fmt.Errorf("no channel available")
	}

	return fn(ch)
}

// Close закрывает канал и соединение.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.logger.Debug("connection closed")
	return nil
}

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/dynotag/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeTagCreated MessageType = "tag.created"
	MessageTypeTagDeleted MessageType = "tag.deleted"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// TagCreatedPayload — payload события о создании тега.
type TagCreatedPayload struct {
	Server  string `json:"server"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// TagDeletedPayload — payload события об удалении тега.
type TagDeletedPayload struct {
	Server string `json:"server"`
	ID     string `json:"id"`
	Name   string `json:"name"`
}

// Publisher публикует события тегов в RabbitMQ.
type Publisher struct {
	conn   ChannelProvider
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn ChannelProvider, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
		now:    time.Now,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// TagCreated публикует событие о созданном теге.
func (p *Publisher) TagCreated(ctx context.Context, server string, tag domain.Tag) error {
	msg := p.newMessage(MessageTypeTagCreated, TagCreatedPayload{
		Server:  server,
		Name:    tag.Name,
		Content: tag.Content,
	})
	return p.Publish(ctx, ExchangeTags, RoutingKeyCreated, msg)
}

// TagDeleted публикует событие об удалённом теге.
func (p *Publisher) TagDeleted(ctx context.Context, server string, ref domain.TagReference) error {
	msg := p.newMessage(MessageTypeTagDeleted, TagDeletedPayload{
		Server: server,
		ID:     ref.ID,
		Name:   ref.Name,
	})
	return p.Publish(ctx, ExchangeTags, RoutingKeyDeleted, msg)
}

func (p *Publisher) newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: p.now(),
	}
}

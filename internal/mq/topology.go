package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeTags — обменник событий тегов.
const ExchangeTags Exchange = "dynotag.tags"

// QueueTagsAudit — очередь, собирающая все события тегов.
const QueueTagsAudit Queue = "dynotag.tags.audit"

// Routing keys.
const (
	RoutingKeyCreated RoutingKey = "tag.created"
	RoutingKeyDeleted RoutingKey = "tag.deleted"
	RoutingKeyAll     RoutingKey = "tag.*"
)

// SetupTopology объявляет exchange и audit-очередь. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn ChannelProvider) error {
	return conn.WithChannel(ctx, func(ch Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeTags), // name
			"topic",              // type
			true,                 // durable
			false,                // auto-deleted
			false,                // internal
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeTags, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueTagsAudit), // name
			true,                   // durable
			false,                  // delete when unused
			false,                  // exclusive
			false,                  // no-wait
			amqp.Table{},           // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueTagsAudit, err)
		}

		err = ch.QueueBind(
			string(QueueTagsAudit), // queue name
			string(RoutingKeyAll),  // routing key
			string(ExchangeTags),   // exchange
			false,                  // no-wait
			nil,                    // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueTagsAudit, ExchangeTags, err)
		}

		return nil
	})
}

// Package mq публикует события об изменении тегов в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ на время одной команды CLI
//   - topology.go   — объявление exchange, audit-очереди и binding
//   - publisher.go  — публикация событий (реализует dyno.Notifier)
//
// Типы сообщений (они же routing keys):
//   - tag.created — тег создан
//   - tag.deleted — тег удалён
//
// Exchanges:
//   - dynotag.tags (topic) — события тегов
package mq

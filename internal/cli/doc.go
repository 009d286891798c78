// Package cli реализует инструмент командной строки dynotag.
//
// # Обзор
//
// CLI управляет тегами Dyno одного сервера: list, create, delete.
// Cookie и server берутся из DynoTagManagerConfig.json (или --config).
//
// # Ключевые компоненты
//
// ## App
//
// Корневая cobra-команда, persistent flags и ленивое открытие Session
// после парсинга флагов. Execute закрывает Session после команды.
//
// ## Session
//
// Всё, что нужно одной команде: TagService, метрики и (опционально)
// соединение с RabbitMQ для событий тегов.
//
// ## Printer
//
// Вывод тегов. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию, управляющие символы экранируются
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, подтверждения и ошибки — в stderr.
// Это позволяет использовать pipe: dynotag list --json | jq .
package cli

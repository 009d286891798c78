// Package telemetry обеспечивает наблюдаемость CLI.
//
// Включает:
//   - logging.go — structured logging через slog (в stderr)
//   - metrics.go — Prometheus метрики клиента
//
// CLI живёт одну команду, поэтому метрики не отдаются по HTTP,
// а записываются в файл в формате textfile collector (node_exporter).
package telemetry

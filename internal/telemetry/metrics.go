package telemetry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — метрики обращений к Dyno API.
//
// Все методы безопасны для nil-получателя: без метрик клиент работает так же.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	tagsListed prometheus.Gauge
}

// NewMetrics создаёт метрики в собственном реестре.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dynotag_requests_total",
			Help: "Total HTTP requests sent to the Dyno API",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dynotag_request_duration_seconds",
			Help:    "Dyno API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		tagsListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dynotag_tags_listed",
			Help: "Number of tags returned by the last list request",
		}),
	}

	m.registry.MustRegister(m.requests, m.duration, m.tagsListed)
	return m
}

// ObserveRequest учитывает один HTTP-запрос.
// statusCode = 0 означает транспортную ошибку.
func (m *Metrics) ObserveRequest(operation string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}

	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}

	m.requests.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// SetTagsListed запоминает размер последнего списка тегов.
func (m *Metrics) SetTagsListed(n int) {
	if m == nil {
		return
	}
	m.tagsListed.Set(float64(n))
}

// Registry возвращает реестр метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile записывает метрики в файл в формате textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

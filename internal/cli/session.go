package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/dynotag/internal/config"
	"github.com/shaiso/dynotag/internal/dyno"
	"github.com/shaiso/dynotag/internal/mq"
	"github.com/shaiso/dynotag/internal/telemetry"
)

// Options — параметры, пришедшие из флагов командной строки.
// Непустые значения переопределяют файл конфигурации.
type Options struct {
	ConfigFile  string
	BaseURL     string
	MetricsFile string
}

// Session — ресурсы одной команды.
type Session struct {
	Service *dyno.TagService
	Metrics *telemetry.Metrics

	metricsFile string
	conn        *mq.Connection
	logger      *slog.Logger
}

// OpenSession загружает конфигурацию и создаёт TagService.
//
// Если задан amqp_url, но RabbitMQ недоступен, команда выполняется без событий.
func OpenSession(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	cfg, err := config.Load(opts.ConfigFile,
		config.WithOverride(config.KeyBaseURL, opts.BaseURL),
		config.WithOverride(config.KeyMetricsFile, opts.MetricsFile),
	)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Metrics:     telemetry.NewMetrics(),
		metricsFile: cfg.MetricsFile,
		logger:      logger,
	}

	svcOpts := []dyno.Option{
		dyno.WithBaseURL(cfg.BaseURL),
		dyno.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		dyno.WithMetrics(s.Metrics),
		dyno.WithLogger(logger),
	}

	if cfg.AMQPURL != "" {
		if publisher := s.openPublisher(ctx, cfg.AMQPURL); publisher != nil {
			svcOpts = append(svcOpts, dyno.WithNotifier(publisher))
		}
	}

	svc, err := dyno.NewTagService(cfg.Credentials, svcOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Service = svc

	return s, nil
}

// openPublisher подключается к RabbitMQ. Возвращает nil, если это не удалось.
func (s *Session) openPublisher(ctx context.Context, url string) *mq.Publisher {
	conn, err := mq.NewConnection(url, s.logger)
	if err != nil {
		s.logger.Warn("tag events disabled", "error", err)
		return nil
	}

	if err := mq.SetupTopology(ctx, conn); err != nil {
		s.logger.Warn("tag events disabled", "error", err)
		conn.Close()
		return nil
	}

	s.conn = conn
	return mq.NewPublisher(conn, s.logger)
}

// Close записывает метрики и закрывает соединение с RabbitMQ.
func (s *Session) Close() error {
	var errs []error

	if err := s.Metrics.WriteTextfile(s.metricsFile); err != nil {
		errs = append(errs, err)
	}

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

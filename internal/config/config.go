// Package config загружает конфигурацию CLI из JSON-файла и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/shaiso/dynotag/internal/domain"
	"github.com/shaiso/dynotag/internal/dyno"
)

// DefaultFile — имя файла конфигурации по умолчанию.
const DefaultFile = "DynoTagManagerConfig.json"

// EnvPrefix — префикс переменных окружения (DYNOTAG_COOKIE, DYNOTAG_SERVER, ...).
const EnvPrefix = "DYNOTAG"

// Ключи конфигурации.
const (
	KeyCookie      = "cookie"
	KeyServer      = "server"
	KeyBaseURL     = "base_url"
	KeyTimeout     = "timeout"
	KeyAMQPURL     = "amqp_url"
	KeyMetricsFile = "metrics_file"
)

var allKeys = []string{KeyCookie, KeyServer, KeyBaseURL, KeyTimeout, KeyAMQPURL, KeyMetricsFile}

// Config — конфигурация CLI.
type Config struct {
	// Credentials — cookie и server, обязательны.
	Credentials domain.Credentials

	// BaseURL — адрес Dyno. По умолчанию https://dyno.gg.
	BaseURL string `validate:"required,url"`

	// Timeout — таймаут HTTP-запроса. По умолчанию 30s, не меньше секунды.
	Timeout time.Duration `validate:"gte=1s"`

	// AMQPURL — адрес RabbitMQ для событий об изменении тегов. Пусто — события выключены.
	AMQPURL string `validate:"omitempty,url"`

	// MetricsFile — путь для метрик в формате textfile collector. Пусто — не пишутся.
	MetricsFile string
}

var validate = validator.New()

// LoadOption — переопределение значения поверх файла и окружения.
type LoadOption func(vp *viper.Viper)

// WithOverride задаёт значение ключа с наивысшим приоритетом.
// Пустое значение игнорируется.
func WithOverride(key, value string) LoadOption {
	return func(vp *viper.Viper) {
		if value != "" {
			vp.Set(key, value)
		}
	}
}

// Load читает конфигурацию из файла path с переопределением через окружение
// и opts. Валидация выполняется после применения всех переопределений.
// Любая ошибка чтения, разбора или валидации оборачивает domain.ErrConfig.
func Load(path string, opts ...LoadOption) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("json")

	vp.SetDefault(KeyBaseURL, dyno.DefaultBaseURL)
	vp.SetDefault(KeyTimeout, "30s")

	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range allKeys {
		if err := vp.BindEnv(key); err != nil {
			return nil, fmt.Errorf("%w: bind env %s: %v", domain.ErrConfig, key, err)
		}
	}

	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfig, path, err)
	}

	for _, opt := range opts {
		opt(vp)
	}

	timeout, err := parseTimeout(vp.Get(KeyTimeout))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Credentials: domain.Credentials{
			Cookie: vp.GetString(KeyCookie),
			Server: vp.GetString(KeyServer),
		},
		BaseURL:     vp.GetString(KeyBaseURL),
		Timeout:     timeout,
		AMQPURL:     vp.GetString(KeyAMQPURL),
		MetricsFile: vp.GetString(KeyMetricsFile),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет конфигурацию.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", domain.ErrConfig, err)
		}

		var invalid []string
		for _, fe := range verrs {
			invalid = append(invalid, fmt.Sprintf("%s (%s)", configKey(fe.Namespace()), fe.Tag()))
		}
		return fmt.Errorf("%w: invalid fields: %s", domain.ErrConfig, strings.Join(invalid, ", "))
	}
	return nil
}

// parseTimeout принимает только строку длительности ("30s", "1m").
// Число без единицы измерения неоднозначно и отклоняется.
func parseTimeout(v any) (time.Duration, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a duration string such as \"30s\", got %v",
			domain.ErrConfig, KeyTimeout, v)
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrConfig, KeyTimeout, err)
	}
	return d, nil
}

// configKey переводит путь поля структуры в ключ файла конфигурации.
func configKey(namespace string) string {
	switch {
	case strings.HasSuffix(namespace, "Credentials.Cookie"):
		return KeyCookie
	case strings.HasSuffix(namespace, "Credentials.Server"):
		return KeyServer
	case strings.HasSuffix(namespace, "BaseURL"):
		return KeyBaseURL
	case strings.HasSuffix(namespace, "Timeout"):
		return KeyTimeout
	case strings.HasSuffix(namespace, "AMQPURL"):
		return KeyAMQPURL
	default:
		return namespace
	}
}

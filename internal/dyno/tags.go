package dyno

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaiso/dynotag/internal/domain"
	"github.com/shaiso/dynotag/internal/telemetry"
)

// Операции, используемые как метка метрик.
const (
	opList   = "list"
	opCreate = "create"
	opDelete = "delete"
)

const notifyTimeout = 5 * time.Second

// Notifier получает события об успешных изменениях тегов.
type Notifier interface {
	TagCreated(ctx context.Context, server string, tag domain.Tag) error
	TagDeleted(ctx context.Context, server string, ref domain.TagReference) error
}

// TagService — операции с тегами одного сервера.
type TagService struct {
	creds    domain.Credentials
	client   *client
	notifier Notifier
	logger   *slog.Logger
}

// Option настраивает TagService.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	metrics    *telemetry.Metrics
	notifier   Notifier
	logger     *slog.Logger
}

// WithBaseURL задаёт адрес Dyno (по умолчанию DefaultBaseURL).
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient задаёт HTTP-клиент.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMetrics включает учёт запросов в метриках.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithNotifier подписывает notifier на создание и удаление тегов.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger задаёт логгер.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewTagService создаёт сервис для credentials.
// Невалидный cookie — фатальная ошибка конфигурации (ErrInvalidHeader).
func NewTagService(creds domain.Credentials, opts ...Option) (*TagService, error) {
	o := options{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	headers, err := BuildHeaders(creds)
	if err != nil {
		return nil, err
	}

	logger := telemetry.WithServer(o.logger, creds.Server)

	return &TagService{
		creds: creds,
		client: &client{
			baseURL:    strings.TrimRight(o.baseURL, "/"),
			headers:    headers,
			httpClient: o.httpClient,
			metrics:    o.metrics,
		},
		notifier: o.notifier,
		logger:   logger,
	}, nil
}

// Server возвращает идентификатор сервера.
func (s *TagService) Server() string {
	return s.creds.Server
}

// ListTags возвращает все теги сервера.
//
// Некорректные записи не приводят к ошибке: диагностика пишется в лог.
func (s *TagService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	list, err := s.listTags(s.withOperation(ctx, opList))
	if err != nil {
		return nil, err
	}
	return list.Tags, nil
}

func (s *TagService) listTags(ctx context.Context) (TagList, error) {
	body, err := s.client.get(ctx, opList, s.listPath())
	if err != nil {
		return TagList{}, err
	}

	list, err := DecodeTagList(body)
	if err != nil {
		return TagList{}, err
	}

	logger := telemetry.FromContext(ctx)
	for _, d := range list.Diagnostics {
		logger.Warn("tolerated malformed tag list", "detail", d)
	}
	s.client.metrics.SetTagsListed(len(list.Tags))

	return list, nil
}

// CreateTag создаёт тег. ID тега, если задан, не передаётся.
func (s *TagService) CreateTag(ctx context.Context, tag domain.Tag) error {
	ctx = s.withOperation(ctx, opCreate)

	body, err := EncodeCreate(tag)
	if err != nil {
		return err
	}

	if _, err := s.client.postJSON(ctx, opCreate, s.createPath(), body); err != nil {
		return err
	}

	telemetry.FromContext(ctx).Info("tag created", "tag", tag.Name)
	s.notify(ctx, func(ctx context.Context, n Notifier) error {
		return n.TagCreated(ctx, s.creds.Server, domain.Tag{Name: tag.Name, Content: tag.Content})
	})
	return nil
}

// DeleteTag удаляет тег по имени и возвращает удалённый тег.
//
// Dyno удаляет только по id, поэтому сначала запрашивается список тегов
// и ищется первый тег с точно совпадающим именем (с учётом регистра).
// Если тег не найден — NotFoundError, второй запрос не выполняется.
func (s *TagService) DeleteTag(ctx context.Context, name string) (domain.Tag, error) {
	ctx = s.withOperation(ctx, opDelete)

	list, err := s.listTags(ctx)
	if err != nil {
		return domain.Tag{}, err
	}

	tag, ok := findTag(list.Tags, name)
	if !ok {
		// Пустой список из-за некорректного ответа — не то же самое, что отсутствие тега
		if list.Malformed {
			return domain.Tag{}, fmt.Errorf("%w: cannot resolve tag %q: %s",
				domain.ErrDecoding, name, strings.Join(list.Diagnostics, "; "))
		}
		return domain.Tag{}, &domain.NotFoundError{Name: name}
	}
	if tag.ID == "" {
		return domain.Tag{}, fmt.Errorf("%w: tag %q listed without id", domain.ErrDecoding, name)
	}

	ref := tag.Reference()
	body, err := EncodeDelete(ref)
	if err != nil {
		return domain.Tag{}, err
	}

	if _, err := s.client.postJSON(ctx, opDelete, s.deletePath(), body); err != nil {
		return domain.Tag{}, err
	}

	telemetry.FromContext(ctx).Info("tag deleted", "tag", tag.Name, "id", tag.ID)
	s.notify(ctx, func(ctx context.Context, n Notifier) error {
		return n.TagDeleted(ctx, s.creds.Server, ref)
	})
	return tag, nil
}

// notify отправляет событие; ошибка не влияет на результат операции.
func (s *TagService) notify(ctx context.Context, fn func(context.Context, Notifier) error) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := fn(ctx, s.notifier); err != nil {
		telemetry.FromContext(ctx).Warn("failed to publish tag event", "error", err)
	}
}

// withOperation кладёт в контекст логгер сервиса с меткой операции.
func (s *TagService) withOperation(ctx context.Context, op string) context.Context {
	return telemetry.WithLogger(ctx, s.logger.With("operation", op))
}

func findTag(tags []domain.Tag, name string) (domain.Tag, bool) {
	for _, t := range tags {
		if t.Name == name {
			return t, true
		}
	}
	return domain.Tag{}, false
}

func (s *TagService) listPath() string {
	return "/api/modules/" + url.PathEscape(s.creds.Server) + "/tags/list"
}

func (s *TagService) createPath() string {
	return "/api/server/" + url.PathEscape(s.creds.Server) + "/tags/create"
}

func (s *TagService) deletePath() string {
	return "/api/server/" + url.PathEscape(s.creds.Server) + "/tags/delete"
}

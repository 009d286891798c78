package dyno

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"

	"github.com/shaiso/dynotag/internal/domain"
	"github.com/shaiso/dynotag/internal/telemetry"
)

// DefaultBaseURL — адрес Dyno по умолчанию.
const DefaultBaseURL = "https://dyno.gg"

const defaultHTTPTimeout = 30 * time.Second

// BuildHeaders строит заголовки авторизации для credentials.
// Возвращает ErrInvalidHeader, если cookie содержит символы,
// недопустимые в значении HTTP-заголовка.
func BuildHeaders(creds domain.Credentials) (http.Header, error) {
	if !httpguts.ValidHeaderFieldValue(creds.Cookie) {
		return nil, fmt.Errorf("%w: cookie contains characters not allowed in a header", domain.ErrInvalidHeader)
	}

	h := make(http.Header, 1)
	h.Set("Cookie", creds.Cookie)
	return h, nil
}

// client — HTTP-клиент Dyno API с фиксированными заголовками.
// Логгер запроса берётся из контекста (telemetry.FromContext).
type client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	metrics    *telemetry.Metrics
}

// get выполняет авторизованный GET и возвращает тело ответа.
func (c *client) get(ctx context.Context, operation, path string) ([]byte, error) {
	return c.do(ctx, operation, http.MethodGet, path, nil)
}

// postJSON выполняет авторизованный POST с JSON-телом.
func (c *client) postJSON(ctx context.Context, operation, path string, body []byte) ([]byte, error) {
	return c.do(ctx, operation, http.MethodPost, path, body)
}

func (c *client) do(ctx context.Context, operation, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrTransport, err)
	}

	for key, values := range c.headers {
		req.Header[key] = append([]string(nil), values...)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	logger := telemetry.WithRequestID(telemetry.FromContext(ctx), requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(operation, 0, time.Since(start))
		logger.Debug("dyno request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(operation, resp.StatusCode, elapsed)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}

	logger.Debug("dyno request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", elapsed,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

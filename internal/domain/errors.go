package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Ошибки клиента Dyno.
var (
	// ErrConfig — конфигурация отсутствует, не читается или невалидна.
	ErrConfig = errors.New("invalid configuration")

	// ErrInvalidHeader — cookie нельзя передать в HTTP-заголовке.
	ErrInvalidHeader = errors.New("invalid header value")

	// ErrTransport — сетевая ошибка (DNS, connection refused, таймаут).
	ErrTransport = errors.New("transport error")

	// ErrRemote — сервер ответил не-2xx.
	ErrRemote = errors.New("remote error")

	// ErrDecoding — тело ответа не является JSON.
	ErrDecoding = errors.New("decoding error")

	// ErrEncoding — тело запроса не удалось сериализовать.
	ErrEncoding = errors.New("encoding error")

	// ErrNotFound — тег с таким именем отсутствует в списке.
	ErrNotFound = errors.New("tag not found")
)

// RemoteError — ответ сервера с кодом вне 2xx.
type RemoteError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error реализует интерфейс error.
func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + truncate(e.Body, 200)
	}
	return msg
}

// Unwrap возвращает ErrRemote.
func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// NotFoundError — удаление тега, которого нет на сервере.
type NotFoundError struct {
	Name string
}

// Error реализует интерфейс error.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tag %q not found", e.Name)
}

// Unwrap возвращает ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Kind — категория ошибки, по которой вызывающий код выбирает реакцию.
type Kind string

// Категории ошибок.
const (
	KindNone          Kind = ""
	KindConfig        Kind = "config"
	KindInvalidHeader Kind = "invalid_header"
	KindTransport     Kind = "transport"
	KindRemote        Kind = "remote"
	KindDecoding      Kind = "decoding"
	KindEncoding      Kind = "encoding"
	KindNotFound      Kind = "not_found"
	KindUnknown       Kind = "unknown"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrConfig, KindConfig},
	{ErrInvalidHeader, KindInvalidHeader},
	{ErrNotFound, KindNotFound},
	{ErrRemote, KindRemote},
	{ErrDecoding, KindDecoding},
	{ErrEncoding, KindEncoding},
	{ErrTransport, KindTransport},
}

// KindOf определяет категорию ошибки.
// Для nil возвращает KindNone, для ошибок вне таксономии — KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// truncate обрезает строку до maxLen байт, не разрывая UTF-8 символ.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

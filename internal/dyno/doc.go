// Package dyno реализует клиент тегов Dyno.
//
// # Ключевые компоненты
//
// ## client
//
// HTTP-обёртка с фиксированным заголовком Cookie. Заголовки строятся один раз
// (BuildHeaders) при создании сервиса, поэтому невалидный cookie обнаруживается
// до первого запроса. Запросы с телом получают Content-Type: application/json,
// каждый запрос — X-Request-ID.
//
// ## Codec
//
// Перевод между JSON Dyno и domain.Tag. Декодер терпим к неконсистентному API:
// нестроковые поля приводятся к тексту, отсутствующий или не-массив "tags"
// даёт пустой список и диагностику вместо ошибки.
//
// ## TagService
//
//	svc, err := dyno.NewTagService(creds)
//	tags, err := svc.ListTags(ctx)
//	err = svc.CreateTag(ctx, domain.Tag{Name: "greet", Content: "hello"})
//	deleted, err := svc.DeleteTag(ctx, "greet")
//
// Удаление по имени — два запроса: list, поиск id по имени, delete по id.
// Операция не атомарна; гонки с другими клиентами проявляются как ErrRemote.
package dyno

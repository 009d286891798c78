package domain

// Credentials — данные для авторизации запросов к Dyno.
//
// Загружаются один раз при старте и не меняются до конца процесса.
type Credentials struct {
	// Cookie — значение session cookie, передаётся в заголовке Cookie как есть.
	Cookie string `json:"cookie" validate:"required"`

	// Server — идентификатор сервера (guild), к которому относятся теги.
	Server string `json:"server" validate:"required"`
}

// Tag — короткая текстовая запись на сервере Dyno.
type Tag struct {
	// Name — имя тега, уникальное в пределах сервера (проверяется на стороне Dyno).
	Name string `json:"tag"`

	// Content — текст тега.
	Content string `json:"content"`

	// ID — идентификатор, назначенный сервером.
	// Пустой у новых тегов, заполнен у тегов из списка.
	ID string `json:"_id,omitempty"`
}

// Reference возвращает ссылку на тег для удаления.
func (t Tag) Reference() TagReference {
	return TagReference{ID: t.ID, Name: t.Name}
}

// TagReference — ссылка на существующий тег (payload удаления).
type TagReference struct {
	ID   string
	Name string
}

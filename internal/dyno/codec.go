package dyno

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/shaiso/dynotag/internal/domain"
)

// TagList — результат декодирования ответа list.
type TagList struct {
	Tags []domain.Tag

	// Malformed — поле "tags" отсутствует, не является массивом,
	// или все его элементы пропущены как не-объекты.
	// Пустой Tags в этом случае не означает, что тегов на сервере нет.
	Malformed bool

	// Diagnostics — нефатальные замечания декодера.
	Diagnostics []string
}

// wireTag — тег в формате Dyno. Поля читаются как сырой JSON,
// так как API возвращает их с разными типами.
type wireTag struct {
	Tag     json.RawMessage `json:"tag"`
	Content json.RawMessage `json:"content"`
	ID      json.RawMessage `json:"_id"`
}

// createPayload — тело запроса создания. ID не передаётся никогда.
type createPayload struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// deletePayload — тело запроса удаления.
// Dyno ожидает id тега под ключом "tag", а имя — под "name".
type deletePayload struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// DecodeTagList разбирает ответ list вида {"tags": [...]}.
//
// Ошибка (ErrDecoding) возвращается только если тело не является JSON.
// Остальные отклонения от формата дают диагностику.
func DecodeTagList(body []byte) (TagList, error) {
	if !json.Valid(body) {
		return TagList{}, fmt.Errorf("%w: tag list response is not valid JSON", domain.ErrDecoding)
	}

	var list TagList

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		list.Malformed = true
		list.Diagnostics = append(list.Diagnostics, "tag list response is not a JSON object")
		return list, nil
	}

	raw, ok := envelope["tags"]
	if !ok {
		list.Malformed = true
		list.Diagnostics = append(list.Diagnostics, `tag list response has no "tags" field`)
		return list, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || isNull(raw) {
		list.Malformed = true
		list.Diagnostics = append(list.Diagnostics, `tag list response field "tags" is not an array`)
		return list, nil
	}

	list.Tags = make([]domain.Tag, 0, len(entries))
	skipped := 0
	for i, entry := range entries {
		tag, diags, ok := decodeTag(entry)
		for _, d := range diags {
			list.Diagnostics = append(list.Diagnostics, fmt.Sprintf("tags[%d]: %s", i, d))
		}
		if !ok {
			skipped++
			continue
		}
		list.Tags = append(list.Tags, tag)
	}

	if skipped > 0 && len(list.Tags) == 0 {
		list.Malformed = true
		list.Diagnostics = append(list.Diagnostics,
			fmt.Sprintf("all %d tag list entries were skipped", skipped))
	}

	return list, nil
}

func decodeTag(raw json.RawMessage) (domain.Tag, []string, bool) {
	var w wireTag
	if err := json.Unmarshal(raw, &w); err != nil || isNull(raw) {
		return domain.Tag{}, []string{"entry is not an object, skipped"}, false
	}

	var diags []string
	field := func(name string, v json.RawMessage) string {
		s, coerced := coerceString(v)
		if coerced {
			diags = append(diags, fmt.Sprintf("field %q is not a string, coerced to %q", name, s))
		}
		return s
	}

	tag := domain.Tag{
		Name:    field("tag", w.Tag),
		Content: field("content", w.Content),
		ID:      field("_id", w.ID),
	}
	return tag, diags, true
}

// coerceString приводит JSON-значение к строке.
// Отсутствующее значение и null дают "", строки читаются как есть,
// остальное (числа, bool, объекты) — в виде компактного JSON-текста.
func coerceString(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "", false
	}
	if isNull(v) {
		return "", true
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, false
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v), true
	}
	return buf.String(), true
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

// EncodeCreate сериализует тег для создания: {"tag", "content"} без id.
func EncodeCreate(tag domain.Tag) ([]byte, error) {
	if err := checkUTF8("tag", tag.Name); err != nil {
		return nil, err
	}
	if err := checkUTF8("content", tag.Content); err != nil {
		return nil, err
	}

	data, err := json.Marshal(createPayload{Tag: tag.Name, Content: tag.Content})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	return data, nil
}

// EncodeDelete сериализует ссылку на тег для удаления: {"tag": id, "name": name}.
func EncodeDelete(ref domain.TagReference) ([]byte, error) {
	if err := checkUTF8("tag", ref.ID); err != nil {
		return nil, err
	}
	if err := checkUTF8("name", ref.Name); err != nil {
		return nil, err
	}

	data, err := json.Marshal(deletePayload{Tag: ref.ID, Name: ref.Name})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	return data, nil
}

func checkUTF8(field, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: field %q is not valid UTF-8", domain.ErrEncoding, field)
	}
	return nil
}

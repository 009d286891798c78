package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/shaiso/dynotag/internal/domain"
)

// Printer выводит результаты команд над тегами.
// Данные идут в stdout (таблица или JSON), статус и ошибки в stderr.
type Printer struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

func newPrinter(jsonMode bool, w, errW io.Writer) *Printer {
	return &Printer{jsonMode: jsonMode, w: w, errW: errW}
}

// Tags выводит список тегов: NAME, CONTENT, ID.
func (p *Printer) Tags(tags []domain.Tag) error {
	if p.jsonMode {
		if tags == nil {
			tags = []domain.Tag{}
		}
		return p.json(tags)
	}

	rows := make([][]string, len(tags))
	for i, t := range tags {
		rows[i] = []string{t.Name, t.Content, t.ID}
	}
	return p.table([]string{"NAME", "CONTENT", "ID"}, rows)
}

// Created подтверждает создание тега. ID у нового тега неизвестен.
func (p *Printer) Created(tag domain.Tag) error {
	fmt.Fprintf(p.errW, "Tag created: %s\n", escapeControl(tag.Name))

	if p.jsonMode {
		return p.json(domain.Tag{Name: tag.Name, Content: tag.Content})
	}
	return p.table([]string{"NAME", "CONTENT"}, [][]string{{tag.Name, tag.Content}})
}

// Deleted подтверждает удаление; в JSON-режиме печатает удалённый тег.
func (p *Printer) Deleted(tag domain.Tag) error {
	fmt.Fprintf(p.errW, "Tag deleted: %s\n", escapeControl(tag.Name))

	if p.jsonMode {
		return p.json(tag)
	}
	return nil
}

// errorReport — ошибка в JSON-режиме.
type errorReport struct {
	Error string      `json:"error"`
	Kind  domain.Kind `json:"kind"`
}

// Failure печатает ошибку команды в stderr.
func (p *Printer) Failure(err error) {
	if p.jsonMode {
		enc := json.NewEncoder(p.errW)
		if enc.Encode(errorReport{Error: err.Error(), Kind: domain.KindOf(err)}) == nil {
			return
		}
	}
	fmt.Fprintln(p.errW, "Error:", escapeControl(err.Error()))
}

func (p *Printer) table(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeControl(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// escapeControl заменяет управляющие символы escape-последовательностями,
// чтобы значение занимало одну ячейку таблицы.
func escapeControl(s string) string {
	if strings.IndexFunc(s, unicode.IsControl) < 0 {
		return s
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case unicode.IsControl(r):
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

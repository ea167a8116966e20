package report

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ContentType MIME тип отчета
const ContentType = "application/pdf"

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Document готовый PDF в памяти
type Document struct {
	data      []byte
	district  string
	createdAt time.Time
	pages     int
}

// Bytes содержимое PDF
func (d *Document) Bytes() []byte {
	return d.data
}

// Size размер в байтах
func (d *Document) Size() int {
	return len(d.data)
}

// Pages количество страниц
func (d *Document) Pages() int {
	return d.pages
}

// CreatedAt время генерации в часовом поясе отчета
func (d *Document) CreatedAt() time.Time {
	return d.createdAt
}

// FileName conecta-icara-<район>-<гггг-мм-дд>.pdf
func (d *Document) FileName() string {
	return FileName(d.district, d.createdAt)
}

// FileName имя файла отчета для района и даты
func FileName(district string, at time.Time) string {
	district = strings.TrimSpace(district)
	if district == "" {
		district = "bairro"
	}
	safe := Slug(district)
	if safe == "" {
		safe = "bairro"
	}
	return "conecta-icara-" + safe + "-" + at.Format("2006-01-02") + ".pdf"
}

// Slug убирает диакритику, заменяет прочие символы на "-" и переводит в нижний регистр
func Slug(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	slug := nonAlnum.ReplaceAllString(stripped, "-")
	return strings.ToLower(strings.Trim(slug, "-"))
}

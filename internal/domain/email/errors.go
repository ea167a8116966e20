package email

import (
	"errors"
	"strings"
)

// ErrSendFailed письмо не отправлено: сетевая ошибка, ответ не 200 или сбой подготовки фото
var ErrSendFailed = errors.New("failed to send report email")

// FieldError ошибка одного поля формы
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError форма не прошла проверку, ничего не отправлялось
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validation помечает ошибку как ошибку валидации для классификации в метриках
func (e *ValidationError) Validation() bool {
	return true
}

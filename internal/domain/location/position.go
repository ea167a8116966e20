// Package location захватывает координаты устройства с одной повторной попыткой
// и заполняет поля района и улицы через обратное геокодирование.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorCode код ошибки геолокации устройства
type ErrorCode int

const (
	CodePermissionDenied    ErrorCode = 1
	CodePositionUnavailable ErrorCode = 2
	CodeTimeout             ErrorCode = 3
)

// ErrUnsupported у устройства нет геолокации
var ErrUnsupported = errors.New("geolocation is not supported")

// PositionError ошибка, о которой сообщило устройство
type PositionError struct {
	Code    ErrorCode
	Message string
}

func (e *PositionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("geolocation error %d", e.Code)
}

// Retryable повторяем только "недоступно" и "таймаут"; отказ в доступе окончателен
func (e *PositionError) Retryable() bool {
	return e.Code == CodePositionUnavailable || e.Code == CodeTimeout
}

// Position координаты устройства
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// PositionOptions параметры запроса позиции
type PositionOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaximumAge         time.Duration
}

var (
	// HighAccuracy первая попытка: точнее, но медленнее
	HighAccuracy = PositionOptions{EnableHighAccuracy: true, Timeout: 25 * time.Second, MaximumAge: 0}
	// Relaxed повторная попытка: допускает позицию из кэша устройства
	Relaxed = PositionOptions{EnableHighAccuracy: false, Timeout: 20 * time.Second, MaximumAge: 60 * time.Second}
)

// PositionSource источник координат (устройство пользователя)
type PositionSource interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

// Report результат одной попытки, как его передал клиент
type Report struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  float64  `json:"accuracy,omitempty"`
	ErrorCode int      `json:"error_code,omitempty"`
}

// ReportedSource воспроизводит попытки, которые уже выполнил браузер.
// Когда попытки закончились, повторяется последняя.
type ReportedSource struct {
	reports []Report
	next    int
}

// NewReportedSource создает источник из отчетов клиента; пустой список означает
// отсутствие геолокации и дает ErrUnsupported.
func NewReportedSource(reports ...Report) *ReportedSource {
	return &ReportedSource{reports: reports}
}

// CurrentPosition реализует PositionSource
func (s *ReportedSource) CurrentPosition(ctx context.Context, _ PositionOptions) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if len(s.reports) == 0 {
		return Position{}, ErrUnsupported
	}

	r := s.reports[len(s.reports)-1]
	if s.next < len(s.reports) {
		r = s.reports[s.next]
		s.next++
	}

	if r.ErrorCode != 0 || r.Latitude == nil || r.Longitude == nil {
		code := ErrorCode(r.ErrorCode)
		if code == 0 {
			code = CodePositionUnavailable
		}
		return Position{}, &PositionError{Code: code}
	}
	return Position{Latitude: *r.Latitude, Longitude: *r.Longitude, Accuracy: r.Accuracy}, nil
}

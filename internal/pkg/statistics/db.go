package statistics

import (
	"context"
	"time"
)

// DB представляет интерфейс для работы с базой данных статистики
type DB interface {
	// LogRequest записывает информацию о HTTP запросе
	LogRequest(ctx context.Context, timestamp time.Time, path, method string, duration time.Duration, success bool) error

	// LogReport записывает попытку сформировать или отправить отчет
	LogReport(ctx context.Context, event Event) error

	// LogUpstream записывает обращение к внешнему сервису
	LogUpstream(ctx context.Context, timestamp time.Time, service string, duration time.Duration, success bool) error

	// GetStatistics возвращает статистику за указанный период; нулевое время означает "за все время"
	GetStatistics(ctx context.Context, since time.Time) (*Stats, error)

	// Close закрывает соединение с базой данных
	Close() error
}

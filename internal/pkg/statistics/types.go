package statistics

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind вид отчета
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindEmail Kind = "email"
)

// Event одна попытка сформировать или отправить отчет
type Event struct {
	Timestamp time.Time
	Kind      Kind
	Duration  time.Duration
	Success   bool
	SizeBytes int64
}

// RequestStats содержит статистику по HTTP запросам
type RequestStats struct {
	TotalRequests   uint64
	SuccessRequests uint64
	FailedRequests  uint64
	TotalDuration   time.Duration
	MinDuration     time.Duration
	MaxDuration     time.Duration
	RequestsByDay   map[time.Weekday]uint64
	RequestsByHour  map[int]uint64
	LastUpdated     time.Time
}

// OperationStats количество и длительность однотипных операций
type OperationStats struct {
	Total         uint64
	Failed        uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastTime      time.Time
}

// SizeStats размеры сгенерированных PDF файлов
type SizeStats struct {
	TotalFiles uint64
	TotalSize  int64
	MinSize    int64
	MaxSize    int64
}

// Stats агрегированная статистика, из памяти или из базы
type Stats struct {
	Requests RequestStats
	Reports  map[Kind]OperationStats
	Upstream map[string]OperationStats
	PDF      SizeStats
}

func newStats() Stats {
	return Stats{
		Requests: RequestStats{
			RequestsByDay:  make(map[time.Weekday]uint64),
			RequestsByHour: make(map[int]uint64),
		},
		Reports:  make(map[Kind]OperationStats),
		Upstream: make(map[string]OperationStats),
	}
}

// Statistics представляет собой потокобезопасное хранилище статистики
type Statistics struct {
	mu     sync.RWMutex
	stats  Stats
	db     DB
	logger *zap.Logger
}

// OperationSummary операции в формате API
type OperationSummary struct {
	Total           uint64 `json:"total"`
	Failed          uint64 `json:"failed"`
	AverageDuration string `json:"average_duration"`
	MinDuration     string `json:"min_duration"`
	MaxDuration     string `json:"max_duration"`
}

// StatisticsResponse представляет собой структуру ответа API
type StatisticsResponse struct {
	Source string `json:"source"`

	Requests struct {
		Total           uint64            `json:"total"`
		Success         uint64            `json:"success"`
		Failed          uint64            `json:"failed"`
		AverageDuration string            `json:"average_duration"`
		MinDuration     string            `json:"min_duration"`
		MaxDuration     string            `json:"max_duration"`
		ByDayOfWeek     map[string]uint64 `json:"by_day_of_week"`
		ByHourOfDay     map[string]uint64 `json:"by_hour_of_day"`
	} `json:"requests"`

	Reports  map[Kind]OperationSummary   `json:"reports"`
	Upstream map[string]OperationSummary `json:"upstream"`

	PDF struct {
		TotalFiles  uint64 `json:"total_files"`
		TotalSize   string `json:"total_size"`
		MinSize     string `json:"min_size"`
		MaxSize     string `json:"max_size"`
		AverageSize string `json:"average_size"`
	} `json:"pdf"`

	LastUpdated time.Time `json:"last_updated"`
}

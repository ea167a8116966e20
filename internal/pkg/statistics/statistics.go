// Package statistics собирает счетчики запросов и отчетов в памяти
// и, если настроена база, пишет каждое событие в PostgreSQL.
package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/logger"

	"go.uber.org/zap"
)

const persistTimeout = 2 * time.Second

var (
	instance *Statistics
	once     sync.Once
)

// GetInstance возвращает синглтон Statistics
func GetInstance() *Statistics {
	once.Do(func() {
		instance = New(nil, logger.Named("statistics"))
	})
	return instance
}

// New создает хранилище статистики; db может быть nil
func New(db DB, log *zap.Logger) *Statistics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Statistics{stats: newStats(), db: db, logger: log}
}

// SetDB подключает базу для записи событий
func (s *Statistics) SetDB(db DB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = db
}

func (s *Statistics) database() DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// TrackRequest регистрирует HTTP запрос
func (s *Statistics) TrackRequest(path, method string, duration time.Duration, success bool) error {
	now := time.Now()

	s.mu.Lock()
	r := &s.stats.Requests
	r.TotalRequests++
	if success {
		r.SuccessRequests++
	} else {
		r.FailedRequests++
	}
	r.TotalDuration += duration
	if r.MinDuration == 0 || duration < r.MinDuration {
		r.MinDuration = duration
	}
	if duration > r.MaxDuration {
		r.MaxDuration = duration
	}
	r.RequestsByDay[now.Weekday()]++
	r.RequestsByHour[now.Hour()]++
	r.LastUpdated = now
	s.mu.Unlock()

	return s.persist(func(ctx context.Context, db DB) error {
		return db.LogRequest(ctx, now, path, method, duration, success)
	})
}

// TrackReport регистрирует генерацию PDF или отправку письма
func (s *Statistics) TrackReport(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.mu.Lock()
	op := s.stats.Reports[event.Kind]
	op.add(event.Duration, event.Success, event.Timestamp)
	s.stats.Reports[event.Kind] = op

	if event.Kind == KindPDF && event.Success && event.SizeBytes > 0 {
		s.stats.PDF.add(event.SizeBytes)
	}
	s.mu.Unlock()

	return s.persist(func(ctx context.Context, db DB) error {
		return db.LogReport(ctx, event)
	})
}

// TrackUpstream регистрирует обращение к внешнему сервису
func (s *Statistics) TrackUpstream(service string, duration time.Duration, success bool) error {
	now := time.Now()

	s.mu.Lock()
	op := s.stats.Upstream[service]
	op.add(duration, success, now)
	s.stats.Upstream[service] = op
	s.mu.Unlock()

	return s.persist(func(ctx context.Context, db DB) error {
		return db.LogUpstream(ctx, now, service, duration, success)
	})
}

func (s *Statistics) persist(write func(ctx context.Context, db DB) error) error {
	db := s.database()
	if db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := write(ctx, db); err != nil {
		s.logger.Warn("failed to persist statistics event", zap.Error(err))
		return fmt.Errorf("persist statistics: %w", err)
	}
	return nil
}

// GetStatistics возвращает текущую статистику из памяти в формате для API
func (s *Statistics) GetStatistics() StatisticsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := s.stats.Response()
	resp.Source = "memory"
	return resp
}

// Summary статистика из базы за период, без базы или при ее ошибке из памяти
func (s *Statistics) Summary(ctx context.Context, since time.Time) StatisticsResponse {
	db := s.database()
	if db == nil {
		return s.GetStatistics()
	}

	stats, err := db.GetStatistics(ctx, since)
	if err != nil {
		s.logger.Warn("failed to load statistics from database, using in-memory counters", zap.Error(err))
		return s.GetStatistics()
	}
	resp := stats.Response()
	resp.Source = "postgres"
	return resp
}

func (o *OperationStats) add(duration time.Duration, success bool, at time.Time) {
	o.Total++
	if !success {
		o.Failed++
	}
	o.TotalDuration += duration
	if o.MinDuration == 0 || duration < o.MinDuration {
		o.MinDuration = duration
	}
	if duration > o.MaxDuration {
		o.MaxDuration = duration
	}
	o.LastTime = at
}

func (o OperationStats) summary() OperationSummary {
	sum := OperationSummary{
		Total:       o.Total,
		Failed:      o.Failed,
		MinDuration: o.MinDuration.String(),
		MaxDuration: o.MaxDuration.String(),
	}
	if o.Total > 0 {
		sum.AverageDuration = (o.TotalDuration / time.Duration(o.Total)).String()
	}
	return sum
}

func (p *SizeStats) add(size int64) {
	p.TotalFiles++
	p.TotalSize += size
	if p.MinSize == 0 || size < p.MinSize {
		p.MinSize = size
	}
	if size > p.MaxSize {
		p.MaxSize = size
	}
}

// Response переводит статистику в формат API
func (st *Stats) Response() StatisticsResponse {
	var response StatisticsResponse

	r := st.Requests
	response.Requests.Total = r.TotalRequests
	response.Requests.Success = r.SuccessRequests
	response.Requests.Failed = r.FailedRequests
	if r.TotalRequests > 0 {
		response.Requests.AverageDuration = (r.TotalDuration / time.Duration(r.TotalRequests)).String()
	}
	response.Requests.MinDuration = r.MinDuration.String()
	response.Requests.MaxDuration = r.MaxDuration.String()

	response.Requests.ByDayOfWeek = make(map[string]uint64, len(r.RequestsByDay))
	for day, count := range r.RequestsByDay {
		response.Requests.ByDayOfWeek[day.String()] = count
	}
	response.Requests.ByHourOfDay = make(map[string]uint64, len(r.RequestsByHour))
	for hour, count := range r.RequestsByHour {
		response.Requests.ByHourOfDay[fmt.Sprintf("%02d:00", hour)] = count
	}

	response.LastUpdated = r.LastUpdated
	response.Reports = make(map[Kind]OperationSummary, len(st.Reports))
	for kind, op := range st.Reports {
		response.Reports[kind] = op.summary()
		if op.LastTime.After(response.LastUpdated) {
			response.LastUpdated = op.LastTime
		}
	}
	response.Upstream = make(map[string]OperationSummary, len(st.Upstream))
	for name, op := range st.Upstream {
		response.Upstream[name] = op.summary()
	}

	response.PDF.TotalFiles = st.PDF.TotalFiles
	response.PDF.TotalSize = formatBytes(st.PDF.TotalSize)
	response.PDF.MinSize = formatBytes(st.PDF.MinSize)
	response.PDF.MaxSize = formatBytes(st.PDF.MaxSize)
	if st.PDF.TotalFiles > 0 {
		response.PDF.AverageSize = formatBytes(st.PDF.TotalSize / int64(st.PDF.TotalFiles))
	} else {
		response.PDF.AverageSize = formatBytes(0)
	}

	return response
}

// formatBytes форматирует размер в байтах в человекочитаемый формат
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

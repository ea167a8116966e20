package statistics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

var _ DB = (*PostgresDB)(nil)

// PostgresDB хранит события статистики в PostgreSQL
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB подключается к PostgreSQL и создает схему
func NewPostgresDB(ctx context.Context, dsn string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &PostgresDB{db: db}
	if err := p.InitSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return p, nil
}

// InitSchema инициализирует схему базы данных
func (p *PostgresDB) InitSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS request_logs (
			id SERIAL PRIMARY KEY,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			path TEXT NOT NULL,
			method TEXT NOT NULL,
			duration_ns BIGINT NOT NULL,
			success BOOLEAN NOT NULL
		);

		CREATE TABLE IF NOT EXISTS report_logs (
			id SERIAL PRIMARY KEY,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			kind TEXT NOT NULL,
			duration_ns BIGINT NOT NULL,
			success BOOLEAN NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS upstream_logs (
			id SERIAL PRIMARY KEY,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			service TEXT NOT NULL,
			duration_ns BIGINT NOT NULL,
			success BOOLEAN NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_request_logs_timestamp ON request_logs(timestamp);
		CREATE INDEX IF NOT EXISTS idx_report_logs_timestamp ON report_logs(timestamp);
		CREATE INDEX IF NOT EXISTS idx_upstream_logs_timestamp ON upstream_logs(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LogRequest записывает информацию о запросе
func (p *PostgresDB) LogRequest(ctx context.Context, timestamp time.Time, path, method string, duration time.Duration, success bool) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO request_logs (timestamp, path, method, duration_ns, success) VALUES ($1, $2, $3, $4, $5)",
		timestamp.UTC(), path, method, duration.Nanoseconds(), success,
	)
	return err
}

// LogReport записывает попытку сформировать или отправить отчет
func (p *PostgresDB) LogReport(ctx context.Context, e Event) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO report_logs (timestamp, kind, duration_ns, success, size_bytes) VALUES ($1, $2, $3, $4, $5)",
		e.Timestamp.UTC(), string(e.Kind), e.Duration.Nanoseconds(), e.Success, e.SizeBytes,
	)
	return err
}

// LogUpstream записывает обращение к внешнему сервису
func (p *PostgresDB) LogUpstream(ctx context.Context, timestamp time.Time, service string, duration time.Duration, success bool) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO upstream_logs (timestamp, service, duration_ns, success) VALUES ($1, $2, $3, $4)",
		timestamp.UTC(), service, duration.Nanoseconds(), success,
	)
	return err
}

// GetStatistics возвращает статистику за указанный период
func (p *PostgresDB) GetStatistics(ctx context.Context, since time.Time) (*Stats, error) {
	stats := newStats()

	if err := p.requestStats(ctx, since, &stats.Requests); err != nil {
		return nil, err
	}
	if err := p.distribution(ctx, since, &stats.Requests); err != nil {
		return nil, err
	}

	reports, err := p.operationStats(ctx, "report_logs", "kind", since)
	if err != nil {
		return nil, err
	}
	for kind, op := range reports {
		stats.Reports[Kind(kind)] = op
	}

	if stats.Upstream, err = p.operationStats(ctx, "upstream_logs", "service", since); err != nil {
		return nil, err
	}

	if err := p.pdfStats(ctx, since, &stats.PDF); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (p *PostgresDB) requestStats(ctx context.Context, since time.Time, r *RequestStats) error {
	where, args := filter(since)
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0),
			COALESCE(SUM(duration_ns), 0),
			COALESCE(MIN(duration_ns), 0),
			COALESCE(MAX(duration_ns), 0),
			MAX(timestamp)
		FROM request_logs
		%s
	`, where)

	var total, minDuration, maxDuration int64
	var lastUpdated sql.NullTime
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(
		&r.TotalRequests,
		&r.SuccessRequests,
		&r.FailedRequests,
		&total,
		&minDuration,
		&maxDuration,
		&lastUpdated,
	); err != nil {
		return fmt.Errorf("error scanning request stats: %w", err)
	}

	r.TotalDuration = time.Duration(total)
	r.MinDuration = time.Duration(minDuration)
	r.MaxDuration = time.Duration(maxDuration)
	if lastUpdated.Valid {
		r.LastUpdated = lastUpdated.Time
	}
	return nil
}

// distribution распределение запросов по дням недели и часам (UTC)
func (p *PostgresDB) distribution(ctx context.Context, since time.Time, r *RequestStats) error {
	where, args := filter(since)

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT EXTRACT(DOW FROM timestamp AT TIME ZONE 'UTC') AS day, EXTRACT(HOUR FROM timestamp AT TIME ZONE 'UTC') AS hour, COUNT(*)
		FROM request_logs
		%s
		GROUP BY day, hour
	`, where), args...)
	if err != nil {
		return fmt.Errorf("error querying request distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day, hour float64
		var count uint64
		if err := rows.Scan(&day, &hour, &count); err != nil {
			return fmt.Errorf("error scanning distribution row: %w", err)
		}
		r.RequestsByDay[time.Weekday(int(day))] += count
		r.RequestsByHour[int(hour)] += count
	}
	return rows.Err()
}

// operationStats агрегаты по таблице событий, сгруппированные по колонке key
func (p *PostgresDB) operationStats(ctx context.Context, table, key string, since time.Time) (map[string]OperationStats, error) {
	where, args := filter(since)

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			%[1]s,
			COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0),
			COALESCE(SUM(duration_ns), 0),
			COALESCE(MIN(duration_ns), 0),
			COALESCE(MAX(duration_ns), 0),
			MAX(timestamp)
		FROM %[2]s
		%[3]s
		GROUP BY %[1]s
	`, key, table, where), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", table, err)
	}
	defer rows.Close()

	result := make(map[string]OperationStats)
	for rows.Next() {
		var (
			name                  string
			op                    OperationStats
			total, minDur, maxDur int64
			last                  sql.NullTime
		)
		if err := rows.Scan(&name, &op.Total, &op.Failed, &total, &minDur, &maxDur, &last); err != nil {
			return nil, fmt.Errorf("error scanning %s row: %w", table, err)
		}
		op.TotalDuration = time.Duration(total)
		op.MinDuration = time.Duration(minDur)
		op.MaxDuration = time.Duration(maxDur)
		if last.Valid {
			op.LastTime = last.Time
		}
		result[name] = op
	}
	return result, rows.Err()
}

func (p *PostgresDB) pdfStats(ctx context.Context, since time.Time, s *SizeStats) error {
	where, args := filter(since, "kind = 'pdf'", "success", "size_bytes > 0")
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(size_bytes), 0),
			COALESCE(MIN(size_bytes), 0),
			COALESCE(MAX(size_bytes), 0)
		FROM report_logs
		%s
	`, where)

	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&s.TotalFiles, &s.TotalSize, &s.MinSize, &s.MaxSize); err != nil {
		return fmt.Errorf("error scanning pdf stats: %w", err)
	}
	return nil
}

// Ping проверяет соединение
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close закрывает соединение с базой данных
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// filter собирает WHERE с фильтром по времени и дополнительными условиями
func filter(since time.Time, conds ...string) (string, []any) {
	var args []any
	if !since.IsZero() {
		conds = append([]string{"timestamp >= $1"}, conds...)
		args = append(args, since.UTC())
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

package statistics

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	mu       sync.Mutex
	requests int
	reports  []Event
	upstream []string
	stats    *Stats
	err      error
}

func (f *fakeDB) LogRequest(context.Context, time.Time, string, string, time.Duration, bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return f.err
}

func (f *fakeDB) LogReport(_ context.Context, e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, e)
	return f.err
}

func (f *fakeDB) LogUpstream(_ context.Context, _ time.Time, service string, _ time.Duration, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upstream = append(f.upstream, service)
	return f.err
}

func (f *fakeDB) GetStatistics(context.Context, time.Time) (*Stats, error) {
	return f.stats, f.err
}

func (f *fakeDB) Close() error { return nil }

func TestTrackRequest(t *testing.T) {
	s := New(nil, nil)

	require.NoError(t, s.TrackRequest("/api/v1/sessions", "POST", 10*time.Millisecond, true))
	require.NoError(t, s.TrackRequest("/api/v1/sessions", "POST", 30*time.Millisecond, false))

	resp := s.GetStatistics()
	assert.Equal(t, "memory", resp.Source)
	assert.Equal(t, uint64(2), resp.Requests.Total)
	assert.Equal(t, uint64(1), resp.Requests.Success)
	assert.Equal(t, uint64(1), resp.Requests.Failed)
	assert.Equal(t, "20ms", resp.Requests.AverageDuration)
	assert.Equal(t, "10ms", resp.Requests.MinDuration)
	assert.Equal(t, "30ms", resp.Requests.MaxDuration)

	var byHour uint64
	for _, n := range resp.Requests.ByHourOfDay {
		byHour += n
	}
	assert.Equal(t, uint64(2), byHour)
}

func TestTrackReport(t *testing.T) {
	s := New(nil, nil)

	require.NoError(t, s.TrackReport(Event{Kind: KindPDF, Duration: time.Second, Success: true, SizeBytes: 2048}))
	require.NoError(t, s.TrackReport(Event{Kind: KindPDF, Duration: 3 * time.Second, Success: false}))
	require.NoError(t, s.TrackReport(Event{Kind: KindEmail, Duration: 500 * time.Millisecond, Success: true}))

	resp := s.GetStatistics()
	assert.Equal(t, OperationSummary{
		Total:           2,
		Failed:          1,
		AverageDuration: "2s",
		MinDuration:     "1s",
		MaxDuration:     "3s",
	}, resp.Reports[KindPDF])
	assert.Equal(t, uint64(1), resp.Reports[KindEmail].Total)

	assert.Equal(t, uint64(1), resp.PDF.TotalFiles)
	assert.Equal(t, "2.0 KB", resp.PDF.TotalSize)
	assert.Equal(t, "2.0 KB", resp.PDF.AverageSize)
	assert.False(t, resp.LastUpdated.IsZero())
}

func TestTrackUpstream(t *testing.T) {
	s := New(nil, nil)

	require.NoError(t, s.TrackUpstream("nominatim", 100*time.Millisecond, true))
	require.NoError(t, s.TrackUpstream("nominatim", 300*time.Millisecond, false))

	resp := s.GetStatistics()
	assert.Equal(t, uint64(2), resp.Upstream["nominatim"].Total)
	assert.Equal(t, uint64(1), resp.Upstream["nominatim"].Failed)
	assert.Equal(t, "200ms", resp.Upstream["nominatim"].AverageDuration)
}

func TestPersistToDB(t *testing.T) {
	db := &fakeDB{}
	s := New(db, nil)

	require.NoError(t, s.TrackRequest("/health", "GET", time.Millisecond, true))
	require.NoError(t, s.TrackReport(Event{Kind: KindEmail, Success: true}))
	require.NoError(t, s.TrackUpstream("emailjs", time.Millisecond, true))

	assert.Equal(t, 1, db.requests)
	require.Len(t, db.reports, 1)
	assert.Equal(t, KindEmail, db.reports[0].Kind)
	assert.False(t, db.reports[0].Timestamp.IsZero())
	assert.Equal(t, []string{"emailjs"}, db.upstream)
}

func TestPersistErrorKeepsMemoryCounters(t *testing.T) {
	s := New(&fakeDB{err: errors.New("connection refused")}, nil)

	err := s.TrackReport(Event{Kind: KindPDF, Success: true, SizeBytes: 10})
	require.Error(t, err)
	assert.Equal(t, uint64(1), s.GetStatistics().Reports[KindPDF].Total)
}

func TestSummary(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		s := New(nil, nil)
		assert.Equal(t, "memory", s.Summary(context.Background(), time.Time{}).Source)
	})

	t.Run("from database", func(t *testing.T) {
		stats := newStats()
		stats.Reports[KindEmail] = OperationStats{Total: 7}
		s := New(&fakeDB{stats: &stats}, nil)

		resp := s.Summary(context.Background(), time.Now().Add(-time.Hour))
		assert.Equal(t, "postgres", resp.Source)
		assert.Equal(t, uint64(7), resp.Reports[KindEmail].Total)
	})

	t.Run("database error falls back to memory", func(t *testing.T) {
		s := New(nil, nil)
		require.NoError(t, s.TrackReport(Event{Kind: KindEmail, Success: true}))
		s.SetDB(&fakeDB{err: errors.New("timeout")})

		resp := s.Summary(context.Background(), time.Time{})
		assert.Equal(t, "memory", resp.Source)
		assert.Equal(t, uint64(1), resp.Reports[KindEmail].Total)
	})
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", formatBytes(0))
	assert.Equal(t, "1023 B", formatBytes(1023))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}

func TestFilter(t *testing.T) {
	where, args := filter(time.Time{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	since := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	where, args = filter(since, "success")
	assert.Equal(t, "WHERE timestamp >= $1 AND success", where)
	assert.Equal(t, []any{since}, args)
}

func TestGetInstance(t *testing.T) {
	assert.Same(t, GetInstance(), GetInstance())
}

// Интеграционный тест: POSTGRES_TEST_DSN="host=localhost port=5432 dbname=test user=test password=test sslmode=disable"
func TestPostgresDB(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN is not set")
	}

	ctx := context.Background()
	db, err := NewPostgresDB(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	since := time.Now().Add(-time.Second)
	require.NoError(t, db.LogRequest(ctx, time.Now(), "/api/v1/sessions", "POST", time.Millisecond, true))
	require.NoError(t, db.LogReport(ctx, Event{Timestamp: time.Now(), Kind: KindPDF, Duration: time.Second, Success: true, SizeBytes: 4096}))
	require.NoError(t, db.LogUpstream(ctx, time.Now(), "nominatim", time.Millisecond, false))

	stats, err := db.GetStatistics(ctx, since)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Requests.TotalRequests, uint64(1))
	assert.GreaterOrEqual(t, stats.Reports[KindPDF].Total, uint64(1))
	assert.GreaterOrEqual(t, stats.Upstream["nominatim"].Failed, uint64(1))
	assert.GreaterOrEqual(t, stats.PDF.TotalFiles, uint64(1))
}

package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/circuitbreaker"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/retry"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, ttl time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	guard := upstream.NewGuard(serviceName, nil, circuitbreaker.Config{FailureThreshold: 10},
		retry.WithMaxAttempts(2), retry.WithoutBackoff())
	c := NewClient(Config{URL: srv.URL + "/reverse", UserAgent: "test-agent", CacheTTL: ttl}, guard, nil)
	t.Cleanup(c.Close)
	return c
}

func TestReverse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "-28.68", r.URL.Query().Get("lat"))
		assert.Equal(t, "-49.3", r.URL.Query().Get("lon"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, acceptLanguage, r.Header.Get("Accept-Language"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Rua Vitória, Centro, Içara","address":{"suburb":"Centro","road":"Rua Vitória","house_number":"120"}}`))
	}, 0)

	addr, err := c.Reverse(context.Background(), -28.68, -49.3)
	require.NoError(t, err)
	assert.Equal(t, "Centro", addr["suburb"])
	assert.Equal(t, "Rua Vitória", addr["road"])
	assert.Equal(t, "120", addr["house_number"])
}

func TestReverse_CacheAvoidsSecondCall(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"address":{"suburb":"Centro"}}`))
	}, time.Minute)

	for i := 0; i < 3; i++ {
		addr, err := c.Reverse(context.Background(), -28.6812345, -49.3098765)
		require.NoError(t, err)
		assert.Equal(t, "Centro", addr["suburb"])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReverse_NoAddress(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1)%2 == 0 {
			_, _ = w.Write([]byte(`{"display_name":"Oceano"}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	t.Cleanup(srv.Close)

	guard := upstream.NewGuard(serviceName, nil, circuitbreaker.Config{FailureThreshold: 2},
		retry.WithMaxAttempts(1))
	c := NewClient(Config{URL: srv.URL}, guard, nil)
	t.Cleanup(c.Close)

	// Пустой ответ штатный и не открывает circuit breaker
	for i := 0; i < 6; i++ {
		addr, err := c.Reverse(context.Background(), float64(i), 0)
		require.NoError(t, err)
		assert.Empty(t, addr)
	}
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
	assert.Equal(t, circuitbreaker.StateClosed, guard.State())
}

func TestReverse_RetriesServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"address":{"road":"Rua A"}}`))
	}, 0)

	addr, err := c.Reverse(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Rua A", addr["road"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestReverse_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}, 0)

	_, err := c.Reverse(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

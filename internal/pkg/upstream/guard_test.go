package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/circuitbreaker"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(attempts int) *Guard {
	return NewGuard("test", nil, circuitbreaker.Config{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	}, retry.WithMaxAttempts(attempts), retry.WithoutBackoff())
}

func TestGuard_RetriesServerErrors(t *testing.T) {
	g := newTestGuard(3)
	calls := 0

	err := g.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &StatusError{Service: "test", StatusCode: http.StatusBadGateway}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGuard_DoesNotRetryClientErrors(t *testing.T) {
	g := newTestGuard(3)
	calls := 0

	err := g.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return &StatusError{Service: "test", StatusCode: http.StatusBadRequest}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestGuard_DoesNotRetryPermanent(t *testing.T) {
	g := newTestGuard(3)
	calls := 0
	decodeErr := errors.New("bad json")

	err := g.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return Permanent(decodeErr)
	})

	assert.ErrorIs(t, err, decodeErr)
	assert.Equal(t, 1, calls)
}

func TestGuard_OpenCircuitShortCircuits(t *testing.T) {
	g := newTestGuard(1)
	fail := func(ctx context.Context) error {
		return &StatusError{Service: "test", StatusCode: http.StatusServiceUnavailable}
	}

	_ = g.Do(context.Background(), "op", fail)
	_ = g.Do(context.Background(), "op", fail)
	require.Equal(t, circuitbreaker.StateOpen, g.State())
	assert.False(t, g.IsHealthy())

	called := false
	err := g.Do(context.Background(), "op", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.False(t, called)
}

func TestCheckResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)

	resp, err := client.Get(srv.URL + "/ok")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NoError(t, CheckResponse("test", resp))

	resp, err = client.Get(srv.URL + "/limited")
	require.NoError(t, err)
	defer resp.Body.Close()

	err = CheckResponse("test", resp)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "slow down", se.Body)
	assert.True(t, se.Retryable())
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "success", statusLabel(nil))
	assert.Equal(t, "circuit_open", statusLabel(Permanent(circuitbreaker.ErrCircuitOpen)))
	assert.Equal(t, "cancelled", statusLabel(context.Canceled))
	assert.Equal(t, "502", statusLabel(&retry.RetryError{Attempt: 2, OriginalError: &StatusError{StatusCode: 502}}))
	assert.Equal(t, "error", statusLabel(errors.New("boom")))
}

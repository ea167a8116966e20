package emailjs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/circuitbreaker"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/retry"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	guard := upstream.NewGuard(serviceName, nil, circuitbreaker.Config{FailureThreshold: 10}, retry.WithMaxAttempts(1))
	return NewClient(Config{
		APIURL:     srv.URL,
		PublicKey:  "public",
		PrivateKey: "private",
		ServiceID:  "service_x",
		TemplateID: "template_y",
	}, guard, nil)
}

func TestSend(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "service_x", body["service_id"])
		assert.Equal(t, "template_y", body["template_id"])
		assert.Equal(t, "public", body["user_id"])
		assert.Equal(t, "private", body["accessToken"])

		params := body["template_params"].(map[string]interface{})
		assert.Equal(t, "Buraco na rua", params["issue_type"])

		_, _ = w.Write([]byte("OK"))
	})

	err := c.Send(context.Background(), map[string]string{"issue_type": "Buraco na rua"})
	require.NoError(t, err)
}

func TestSend_NonOKIsError(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("The service is unavailable"))
	})

	err := c.Send(context.Background(), map[string]string{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode(err))
	assert.Equal(t, 1, calls)
}

func TestSend_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, upstream.NewGuard(serviceName, nil, circuitbreaker.Config{}), nil)
	assert.ErrorIs(t, c.Send(context.Background(), nil), ErrNotConfigured)
}

package peer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

func TestClient_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "calcmesh-test", r.Header.Get("User-Agent"))

		var env domain.Envelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		assert.Equal(t, "mean", env.Message.Operation)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"agent": "statistics_agent",
			"identity": "statistics_agent@10.0.0.3:5003",
			"response": {"success": true, "result": 26.5, "operation": "mean", "count": 3},
			"trace": ["a", "b"],
			"final": 26.5
		}`)
	}))
	defer srv.Close()

	client := New(WithHeader("User-Agent", "calcmesh-test"))
	reply, err := client.Send(context.Background(), srv.URL, domain.Envelope{
		Message: domain.Message{Operation: "mean", Data: domain.Data{"numbers": []float64{1}}},
	})

	require.NoError(t, err)
	assert.Equal(t, "statistics_agent", reply.Agent)
	require.NotNil(t, reply.Response)
	assert.True(t, reply.Response.Success)
	v, ok := reply.Response.Numeric()
	assert.True(t, ok)
	assert.Equal(t, 26.5, v)
	assert.Equal(t, 3.0, reply.Response.Extras["count"])
	assert.Equal(t, []string{"a", "b"}, reply.Trace)
}

func TestClient_Send_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, `{"error":"upstream"}`)
			},
			wantErr: domain.ErrDownstreamUnavailable,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "<html>oops</html>")
			},
			wantErr: domain.ErrMalformedDownstreamResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New().Send(context.Background(), srv.URL, map[string]any{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Send_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New().Send(context.Background(), url, map[string]any{})
	assert.ErrorIs(t, err, domain.ErrDownstreamUnavailable)
}

func TestClient_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New().Send(ctx, srv.URL, map[string]any{})
	assert.ErrorIs(t, err, domain.ErrDownstreamUnavailable)
	assert.ErrorContains(t, err, "timed out")
}

func TestClient_Relay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"operation":"add"}`, string(body))
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"nope"}`)
	}))
	defer srv.Close()

	resp, err := New().Relay(context.Background(), srv.URL, json.RawMessage(`{"operation":"add"}`))

	require.NoError(t, err, "non-2xx replies are relayed, not errors")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.JSONEq(t, `{"error":"nope"}`, string(resp.Body))
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := New(WithTimeout(time.Second))

	status, err := client.Ping(context.Background(), srv.URL+"/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, err = client.Ping(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	_, err = client.Ping(context.Background(), "://bad")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_Options(t *testing.T) {
	custom := &http.Client{Timeout: 3 * time.Second}
	client := New(WithHTTPClient(custom), nil, WithHTTPClient(nil))

	assert.Same(t, custom, client.http)
	assert.Equal(t, DefaultTimeout, New().http.Timeout)
}

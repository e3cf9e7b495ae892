package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-notify/internal/infra/webhook"
)

func TestClient_Post(t *testing.T) {
	// Arrange
	var gotBody string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := webhook.NewClient(webhook.Config{Timeout: time.Second}, nil)

	// Act
	err := client.Post(context.Background(), server.URL, `{"activity":"x"}`)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, `{"activity":"x"}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClient_Post_BasicAuth(t *testing.T) {
	// Arrange
	var user, pass string
	var hasAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, hasAuth = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := webhook.NewClient(webhook.Config{
		Username: "streams", Password: "secret", Timeout: time.Second,
	}, nil)

	// Act
	err := client.Post(context.Background(), server.URL, "{}")

	// Assert
	require.NoError(t, err)
	require.True(t, hasAuth)
	assert.Equal(t, "streams", user)
	assert.Equal(t, "secret", pass)
}

func TestClient_Post_NoAuthWhenUsernameEmpty(t *testing.T) {
	// Arrange
	var hasAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, hasAuth = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := webhook.NewClient(webhook.Config{Timeout: time.Second}, nil)

	// Act
	err := client.Post(context.Background(), server.URL, "{}")

	// Assert
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestClient_Post_StatusDoesNotFail(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := webhook.NewClient(webhook.Config{Timeout: time.Second}, nil)

	// Act
	err := client.Post(context.Background(), server.URL, "{}")

	// Assert: a non-2xx response is logged, not surfaced.
	assert.NoError(t, err)
}

func TestClient_Post_TransportError(t *testing.T) {
	// Arrange
	client := webhook.NewClient(webhook.Config{Timeout: 200 * time.Millisecond}, nil)

	// Act: nothing listens on this port.
	err := client.Post(context.Background(), "http://127.0.0.1:1/hook", "{}")

	// Assert
	assert.Error(t, err)
}

func TestClient_Post_EndpointIsolation(t *testing.T) {
	// Arrange: one healthy endpoint, one dead one.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := webhook.NewClient(webhook.Config{Timeout: 200 * time.Millisecond}, nil)

	// Act: trip the dead endpoint's breaker, then use the healthy one.
	for i := 0; i < 6; i++ {
		_ = client.Post(context.Background(), "http://127.0.0.1:1/hook", "{}")
	}
	err := client.Post(context.Background(), server.URL, "{}")

	// Assert: failures on one host never open the other host's circuit.
	assert.NoError(t, err)
}

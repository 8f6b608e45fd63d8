package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazgan/pressgen/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", "test-model", WithBaseURL(srv.URL))
}

func TestGenerateSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"raw model output"}]}}]}`))
	})

	text, err := client.Generate(context.Background(), "write something")
	require.NoError(t, err)
	assert.Equal(t, "raw model output", text)
}

func TestGenerateAuthFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Generate(context.Background(), "p")
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.CodeAuthFailed, pe.Code)
	assert.False(t, pe.Retryable)
}

func TestGenerateRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), "p")
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.CodeRateLimited, pe.Code)
	assert.True(t, pe.Retryable)
}

func TestGeneratePlatformError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Generate(context.Background(), "p")
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.CodePlatformError, pe.Code)
	assert.True(t, pe.Retryable)
}

func TestGenerateEmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := client.Generate(context.Background(), "p")
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.CodeEmptyResponse, pe.Code)
}

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	service := NewLLMService(Config{})
	assert.Equal(t, DefaultModel, service.ModelName())
	assert.Equal(t, DefaultBaseURL, service.baseURL)
}

func TestLLMService_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.Equal(t, "describe the change", req.Prompt)
		assert.False(t, req.Stream)
		assert.Nil(t, req.Options)

		json.NewEncoder(w).Encode(generateResponse{Response: "Two controls were added.", Done: true}) //nolint:errcheck
	}))
	defer server.Close()

	service := NewLLMService(Config{BaseURL: server.URL})

	result, err := service.Generate(context.Background(), "describe the change", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Two controls were added.", result)
}

func TestLLMService_Generate_Options(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Options)
		assert.Equal(t, 256, req.Options.NumPredict)
		assert.InDelta(t, 0.3, req.Options.Temperature, 1e-9)
		assert.Equal(t, []string{"\n\n"}, req.Options.Stop)

		json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true}) //nolint:errcheck
	}))
	defer server.Close()

	service := NewLLMService(Config{BaseURL: server.URL})

	_, err := service.Generate(context.Background(), "prompt", driven.GenerateOptions{
		MaxTokens:   256,
		Temperature: 0.3,
		StopWords:   []string{"\n\n"},
	})
	require.NoError(t, err)
}

func TestLLMService_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	service := NewLLMService(Config{BaseURL: server.URL})

	_, err := service.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestLLMService_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`)) //nolint:errcheck
	}))
	defer server.Close()

	service := NewLLMService(Config{BaseURL: server.URL})

	assert.NoError(t, service.Ping(context.Background()))
	assert.NoError(t, service.Close())
}

func TestLLMService_Ping_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	service := NewLLMService(Config{BaseURL: server.URL})

	err := service.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

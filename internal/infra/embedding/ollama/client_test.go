package ollama

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/faqstudio/backend/internal/domain/catalog"
	apperrors "github.com/faqstudio/backend/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmbedPostsModelAndPrompt(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "bge-m3", time.Second, 0, newTestLogger())
	vector, err := client.Embed(context.Background(), "vergi borcu sorgulama")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	require.Equal(t, "/api/embeddings", gotPath)
	require.Equal(t, "bge-m3", gotBody["model"])
	require.Equal(t, "vergi borcu sorgulama", gotBody["prompt"])
}

func TestEmbedProviderErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bge-m3", time.Second, 0, newTestLogger())
	_, err := client.Embed(context.Background(), "anything")
	require.Error(t, err)
	require.Equal(t, catalog.CodeEmbeddingUnavailable, apperrors.Code(err))
}

func TestEmbedEmptyVectorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "bge-m3", time.Second, 0, newTestLogger())
	_, err := client.Embed(context.Background(), "anything")
	require.Error(t, err)
	require.Equal(t, catalog.CodeEmbeddingUnavailable, apperrors.Code(err))
}

func TestEmbedConnectionFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "bge-m3", time.Second, 0, newTestLogger())
	_, err := client.Embed(context.Background(), "anything")
	require.Error(t, err)
	require.Equal(t, catalog.CodeEmbeddingUnavailable, apperrors.Code(err))
}

func TestEmbedGarbageResponseIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bge-m3", time.Second, 0, newTestLogger())
	_, err := client.Embed(context.Background(), "anything")
	require.Error(t, err)
	require.Equal(t, catalog.CodeEmbeddingUnavailable, apperrors.Code(err))
}

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/faqstudio/backend/internal/domain/catalog"
	apperrors "github.com/faqstudio/backend/pkg/errors"
)

const (
	defaultBaseURL = "http://ollama:11434"
	defaultTimeout = 20 * time.Second
	truncEncoding  = "cl100k_base"
)

// Client calls the Ollama embeddings API. It holds no per-call state and is
// safe for concurrent reuse; failures are surfaced as embedding_unavailable
// and never retried here.
type Client struct {
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	encoder    *tiktoken.Tiktoken
	logger     *slog.Logger
}

// NewClient builds the embedding client. The output dimension is a property
// of model and must stay stable for the lifetime of a deployment.
func NewClient(baseURL, model string, timeout time.Duration, maxTokens int, logger *slog.Logger) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	encoder, err := tiktoken.GetEncoding(truncEncoding)
	if err != nil {
		// truncation becomes a no-op; the provider enforces its own limits
		logger.Warn("tiktoken encoding unavailable, skipping input truncation", "error", err)
		encoder = nil
	}
	return &Client{
		baseURL:   strings.TrimRight(url, "/"),
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		encoder: encoder,
		logger:  logger.With("component", "embedding.ollama"),
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests a vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embeddingRequest{
		Model:  c.model,
		Prompt: c.truncate(text),
	})
	if err != nil {
		return nil, apperrors.Wrap(catalog.CodeEmbeddingUnavailable, "encode embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(catalog.CodeEmbeddingUnavailable, "build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(catalog.CodeEmbeddingUnavailable, "embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, apperrors.Wrap(catalog.CodeEmbeddingUnavailable,
			fmt.Sprintf("embedding provider error: status=%d body=%s", resp.StatusCode, string(body)), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(catalog.CodeEmbeddingUnavailable, "read embedding response", err)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.Wrap(catalog.CodeEmbeddingUnavailable, "decode embedding response", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, apperrors.Wrap(catalog.CodeEmbeddingUnavailable, "empty embedding from provider", nil)
	}
	return parsed.Embedding, nil
}

func (c *Client) truncate(text string) string {
	if c.encoder == nil || c.maxTokens <= 0 {
		return text
	}
	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) <= c.maxTokens {
		return text
	}
	return c.encoder.Decode(tokens[:c.maxTokens])
}

var _ catalog.Embedder = (*Client)(nil)

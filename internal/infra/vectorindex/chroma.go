package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/faqstudio/backend/internal/domain/catalog"
)

const defaultTimeout = 10 * time.Second

// ChromaIndex mirrors canonical entries into a Chroma collection over its
// REST API. Entries are keyed by the stringified id; the question is the
// document text, the remaining fields travel as metadata. The collection is
// configured for cosine similarity space, so similarity = 1 - distance.
type ChromaIndex struct {
	baseURL    string
	collection string
	httpClient *http.Client

	mu           sync.Mutex
	collectionID string
}

// NewChromaIndex builds the index client. The collection is resolved lazily
// on first use with get-or-create semantics.
func NewChromaIndex(baseURL, collection string, timeout time.Duration) *ChromaIndex {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if collection == "" {
		collection = "faq_questions"
	}
	return &ChromaIndex{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type getResponse struct {
	IDs []string `json:"ids"`
}

type queryResponse struct {
	IDs       [][]string  `json:"ids"`
	Documents [][]string  `json:"documents"`
	Distances [][]float64 `json:"distances"`
}

type chromaMeta struct {
	ID       string `json:"id"`
	Answer   string `json:"answer"`
	Keywords string `json:"keywords"`
	Category string `json:"category"`
}

// Upsert adds an entry unless its id is already present.
func (x *ChromaIndex) Upsert(ctx context.Context, entry catalog.Entry) (bool, error) {
	collID, err := x.ensureCollection(ctx)
	if err != nil {
		return false, err
	}
	key := strconv.FormatInt(entry.ID, 10)

	var existing getResponse
	if err := x.post(ctx, fmt.Sprintf("/api/v1/collections/%s/get", collID), map[string]any{
		"ids":     []string{key},
		"include": []string{},
	}, &existing); err != nil {
		return false, err
	}
	for _, id := range existing.IDs {
		if id == key {
			return false, nil
		}
	}

	payload := map[string]any{
		"ids":        []string{key},
		"embeddings": [][]float32{entry.Embedding},
		"documents":  []string{entry.Question},
		"metadatas": []chromaMeta{{
			ID:       key,
			Answer:   entry.Answer,
			Keywords: entry.Keywords,
			Category: entry.Category,
		}},
	}
	if err := x.post(ctx, fmt.Sprintf("/api/v1/collections/%s/add", collID), payload, nil); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the entry with the given id. Deleting an absent id is a
// no-op on the Chroma side.
func (x *ChromaIndex) Delete(ctx context.Context, id int64) error {
	collID, err := x.ensureCollection(ctx)
	if err != nil {
		return err
	}
	return x.post(ctx, fmt.Sprintf("/api/v1/collections/%s/delete", collID), map[string]any{
		"ids": []string{strconv.FormatInt(id, 10)},
	}, nil)
}

// Query returns the k nearest entries to the embedding.
func (x *ChromaIndex) Query(ctx context.Context, embedding []float32, k int) ([]catalog.Match, error) {
	collID, err := x.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}
	var resp queryResponse
	if err := x.post(ctx, fmt.Sprintf("/api/v1/collections/%s/query", collID), map[string]any{
		"query_embeddings": [][]float32{embedding},
		"n_results":        k,
		"include":          []string{"documents", "distances"},
	}, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	matches := make([]catalog.Match, 0, len(resp.IDs[0]))
	for i, key := range resp.IDs[0] {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		match := catalog.Match{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			match.Question = resp.Documents[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			match.Similarity = 1 - resp.Distances[0][i]
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (x *ChromaIndex) ensureCollection(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.collectionID != "" {
		return x.collectionID, nil
	}
	var coll collectionResponse
	err := x.post(ctx, "/api/v1/collections", map[string]any{
		"name":          x.collection,
		"get_or_create": true,
		"metadata":      map[string]string{"hnsw:space": "cosine"},
	}, &coll)
	if err != nil {
		return "", err
	}
	if coll.ID == "" {
		return "", fmt.Errorf("chroma returned no collection id for %q", x.collection)
	}
	x.collectionID = coll.ID
	return x.collectionID, nil
}

func (x *ChromaIndex) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode chroma request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build chroma request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("chroma error: status=%d body=%s", resp.StatusCode, string(detail))
	}
	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read chroma response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode chroma response: %w", err)
	}
	return nil
}

var _ catalog.VectorIndex = (*ChromaIndex)(nil)

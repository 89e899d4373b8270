package vectorindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/faqstudio/backend/internal/domain/catalog"
)

// fakeChroma mimics the small slice of the Chroma REST API the index uses.
type fakeChroma struct {
	ids       map[string]bool
	addCalls  int
	collCalls int
}

func newFakeChroma() *fakeChroma {
	return &fakeChroma{ids: make(map[string]bool)}
}

func (f *fakeChroma) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		f.collCalls++
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "coll-1", "name": req["name"].(string)})
	})
	mux.HandleFunc("/api/v1/collections/coll-1/get", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		var present []string
		for _, id := range req.IDs {
			if f.ids[id] {
				present = append(present, id)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ids": present})
	})
	mux.HandleFunc("/api/v1/collections/coll-1/add", func(w http.ResponseWriter, r *http.Request) {
		f.addCalls++
		var req struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, id := range req.IDs {
			f.ids[id] = true
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/v1/collections/coll-1/delete", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, id := range req.IDs {
			delete(f.ids, id)
		}
		_ = json.NewEncoder(w).Encode([]string{})
	})
	mux.HandleFunc("/api/v1/collections/coll-1/query", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ids":       [][]string{{"1", "2"}},
			"documents": [][]string{{"first", "second"}},
			"distances": [][]float64{{0.08, 0.3}},
		})
	})
	return mux
}

func TestUpsertIsIdempotentByID(t *testing.T) {
	fake := newFakeChroma()
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	index := NewChromaIndex(server.URL, "faq_questions", time.Second)
	entry := catalog.Entry{ID: 1, Question: "q", Embedding: []float32{1, 0}}

	added, err := index.Upsert(context.Background(), entry)
	require.NoError(t, err)
	require.True(t, added)

	added, err = index.Upsert(context.Background(), entry)
	require.NoError(t, err)
	require.False(t, added)
	require.Equal(t, 1, fake.addCalls)
	// collection resolved once and cached
	require.Equal(t, 1, fake.collCalls)
}

func TestDeleteRemovesID(t *testing.T) {
	fake := newFakeChroma()
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	index := NewChromaIndex(server.URL, "faq_questions", time.Second)
	_, err := index.Upsert(context.Background(), catalog.Entry{ID: 5, Embedding: []float32{1}})
	require.NoError(t, err)

	require.NoError(t, index.Delete(context.Background(), 5))
	require.NotContains(t, fake.ids, "5")

	// deleting an absent id is a no-op
	require.NoError(t, index.Delete(context.Background(), 99))
}

func TestQueryConvertsDistanceToSimilarity(t *testing.T) {
	server := httptest.NewServer(newFakeChroma().handler())
	defer server.Close()

	index := NewChromaIndex(server.URL, "faq_questions", time.Second)
	matches, err := index.Query(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, int64(1), matches[0].ID)
	require.Equal(t, "first", matches[0].Question)
	require.InDelta(t, 0.92, matches[0].Similarity, 1e-9)
	require.InDelta(t, 0.70, matches[1].Similarity, 1e-9)
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	index := NewChromaIndex(server.URL, "faq_questions", time.Second)
	_, err := index.Upsert(context.Background(), catalog.Entry{ID: 1})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "status=500"))
}

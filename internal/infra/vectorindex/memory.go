package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/faqstudio/backend/internal/domain/catalog"
)

// MemoryIndex is an in-process VectorIndex used for tests and local
// development without a Chroma instance.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[int64]catalog.Entry
}

// NewMemoryIndex constructs the index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[int64]catalog.Entry)}
}

// Upsert implements catalog.VectorIndex; an existing id is skipped.
func (x *MemoryIndex) Upsert(_ context.Context, entry catalog.Entry) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, exists := x.entries[entry.ID]; exists {
		return false, nil
	}
	clone := entry
	clone.Embedding = append([]float32(nil), entry.Embedding...)
	x.entries[entry.ID] = clone
	return true, nil
}

// Delete implements catalog.VectorIndex.
func (x *MemoryIndex) Delete(_ context.Context, id int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, id)
	return nil
}

// Query implements catalog.VectorIndex with cosine similarity scoring.
func (x *MemoryIndex) Query(_ context.Context, embedding []float32, k int) ([]catalog.Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]catalog.Match, 0, len(x.entries))
	for _, entry := range x.entries {
		matches = append(matches, catalog.Match{
			ID:         entry.ID,
			Question:   entry.Question,
			Similarity: cosineSimilarity(embedding, entry.Embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Len reports the number of indexed entries.
func (x *MemoryIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < length; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ catalog.VectorIndex = (*MemoryIndex)(nil)

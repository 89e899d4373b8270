package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/faqstudio/backend/internal/domain/catalog"
)

// Deterministic avoids network calls by hashing text into a unit vector of a
// fixed dimension. Identical input always yields an identical vector, which
// keeps duplicate detection exercisable offline and in tests.
type Deterministic struct {
	dim int
}

// NewDeterministic constructs the offline embedder.
func NewDeterministic(dim int) *Deterministic {
	if dim <= 0 {
		dim = 32
	}
	return &Deterministic{dim: dim}
}

// Embed converts text into a pseudo-random unit vector.
func (e *Deterministic) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, e.dim)
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(text))
	seed := hash.Sum64()
	var norm float64
	for j := 0; j < e.dim; j++ {
		seed = seed*1099511628211 + 1469598103934665603
		vector[j] = float32(seed%997) / 997.0
		norm += float64(vector[j]) * float64(vector[j])
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for j := range vector {
			vector[j] *= scale
		}
	}
	return vector, nil
}

var _ catalog.Embedder = (*Deterministic)(nil)

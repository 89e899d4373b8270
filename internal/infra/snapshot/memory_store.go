package snapshot

import (
	"context"
	"sync"

	"github.com/faqstudio/backend/internal/domain/catalog"
)

// MemoryStore keeps uploaded snapshots in memory for tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryStore constructs the store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload implements catalog.SnapshotStore.
func (s *MemoryStore) Upload(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = append([]byte(nil), data...)
	return nil
}

// Len reports how many snapshots were taken.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

var _ catalog.SnapshotStore = (*MemoryStore)(nil)

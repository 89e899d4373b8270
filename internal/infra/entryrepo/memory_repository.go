package entryrepo

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/faqstudio/backend/internal/domain/catalog"
	"github.com/faqstudio/backend/pkg/util"
)

// MemoryRepository is an in-memory EntryRepository used for tests and local
// development when no Postgres DSN is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64

	entries map[int64]catalog.Entry
	order   []int64
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:  1,
		entries: make(map[int64]catalog.Entry),
	}
}

// Insert implements catalog.EntryRepository.
func (r *MemoryRepository) Insert(_ context.Context, draft catalog.Draft) (catalog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := catalog.Entry{
		ID:        r.nextID,
		Question:  draft.Question,
		Answer:    draft.Answer,
		Keywords:  draft.Keywords,
		Category:  draft.Category,
		Embedding: append([]float32(nil), draft.Embedding...),
		CreatedAt: util.NowUTC(),
		CreatedBy: draft.CreatedBy,
	}
	r.nextID++
	r.entries[entry.ID] = entry
	r.order = append(r.order, entry.ID)
	return entry, nil
}

// RestoreEntry implements catalog.EntryRepository.
func (r *MemoryRepository) RestoreEntry(_ context.Context, rec catalog.ExportRecord, embedding []float32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[rec.ID]; exists {
		return false, nil
	}
	createdBy := rec.CreatedBy
	if createdBy == "" {
		createdBy = catalog.DefaultCreatedBy
	}
	r.entries[rec.ID] = catalog.Entry{
		ID:        rec.ID,
		Question:  rec.Question,
		Answer:    rec.Answer,
		Keywords:  rec.Keywords,
		Category:  rec.Category,
		Embedding: append([]float32(nil), embedding...),
		CreatedAt: util.NowUTC(),
		CreatedBy: createdBy,
	}
	r.order = append(r.order, rec.ID)
	if rec.ID >= r.nextID {
		r.nextID = rec.ID + 1
	}
	return true, nil
}

// Nearest implements catalog.EntryRepository with cosine distance math.
func (r *MemoryRepository) Nearest(_ context.Context, embedding []float32, k int) ([]catalog.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		match    catalog.Match
		distance float64
	}
	candidates := make([]scored, 0, len(r.entries))
	for _, id := range r.order {
		entry := r.entries[id]
		dist := cosineDistance(embedding, entry.Embedding)
		candidates = append(candidates, scored{
			match: catalog.Match{
				ID:         entry.ID,
				Question:   entry.Question,
				Similarity: 1 - dist,
			},
			distance: dist,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	matches := make([]catalog.Match, len(candidates))
	for i, c := range candidates {
		matches[i] = c.match
	}
	return matches, nil
}

// Delete implements catalog.EntryRepository.
func (r *MemoryRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return false, nil
	}
	delete(r.entries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Get implements catalog.EntryRepository.
func (r *MemoryRepository) Get(_ context.Context, id int64) (catalog.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return entry, ok, nil
}

// List implements catalog.EntryRepository, newest first.
func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]catalog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.page(r.descendingLocked(), limit, offset), nil
}

// Search implements catalog.EntryRepository with case-insensitive substring
// matching across the text fields.
func (r *MemoryRepository) Search(_ context.Context, query string, limit, offset int) ([]catalog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	var hits []catalog.Entry
	for _, entry := range r.descendingLocked() {
		haystack := strings.ToLower(entry.Question + " " + entry.Answer + " " + entry.Keywords + " " + entry.Category)
		if strings.Contains(haystack, needle) {
			hits = append(hits, entry)
		}
	}
	return r.page(hits, limit, offset), nil
}

// ListAll implements catalog.EntryRepository in ascending id order.
func (r *MemoryRepository) ListAll(_ context.Context) ([]catalog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := append([]int64(nil), r.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	entries := make([]catalog.Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, r.entries[id])
	}
	return entries, nil
}

// CategoryCounts implements catalog.EntryRepository.
func (r *MemoryRepository) CategoryCounts(_ context.Context) ([]catalog.CategoryCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tally := make(map[string]int64)
	for _, entry := range r.entries {
		tally[entry.Category]++
	}
	counts := make([]catalog.CategoryCount, 0, len(tally))
	for category, count := range tally {
		counts = append(counts, catalog.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Category < counts[j].Category
	})
	return counts, nil
}

// Total implements catalog.EntryRepository.
func (r *MemoryRepository) Total(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.entries)), nil
}

// RecentCount implements catalog.EntryRepository.
func (r *MemoryRepository) RecentCount(_ context.Context, days int) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := util.NowUTC().AddDate(0, 0, -days)
	var count int64
	for _, entry := range r.entries {
		if entry.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count, nil
}

// CountsByDate implements catalog.EntryRepository.
func (r *MemoryRepository) CountsByDate(_ context.Context, limit int) ([]catalog.DateCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := util.NowUTC().AddDate(0, 0, -limit)
	tally := make(map[string]int64)
	for _, entry := range r.entries {
		if entry.CreatedAt.After(cutoff) {
			tally[entry.CreatedAt.Format("2006-01-02")]++
		}
	}
	counts := make([]catalog.DateCount, 0, len(tally))
	for date, count := range tally {
		counts = append(counts, catalog.DateCount{Date: date, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Date > counts[j].Date })
	return counts, nil
}

func (r *MemoryRepository) descendingLocked() []catalog.Entry {
	ids := append([]int64(nil), r.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	entries := make([]catalog.Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, r.entries[id])
	}
	return entries
}

func (r *MemoryRepository) page(entries []catalog.Entry, limit, offset int) []catalog.Entry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

func cosineDistance(a, b []float32) float64 {
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
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

var _ catalog.EntryRepository = (*MemoryRepository)(nil)

package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	apperrors "github.com/faqstudio/backend/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.vector == nil {
		return []float32{1, 0, 0}, nil
	}
	return s.vector, nil
}

func embeddingDown() error {
	return apperrors.Wrap(CodeEmbeddingUnavailable, "embedding provider unreachable", errors.New("connect refused"))
}

type stubRepo struct {
	matches    []Match
	nearestErr error
	nearestK   int

	inserted  []Entry
	insertErr error
	nextID    int64

	deleted   map[int64]bool
	deleteErr error

	restored map[int64]ExportRecord
	all      []Entry
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, deleted: make(map[int64]bool), restored: make(map[int64]ExportRecord)}
}

func (s *stubRepo) Insert(_ context.Context, draft Draft) (Entry, error) {
	if s.insertErr != nil {
		return Entry{}, s.insertErr
	}
	entry := Entry{
		ID:        s.nextID,
		Question:  draft.Question,
		Answer:    draft.Answer,
		Keywords:  draft.Keywords,
		Category:  draft.Category,
		Embedding: draft.Embedding,
		CreatedAt: time.Now().UTC(),
		CreatedBy: draft.CreatedBy,
	}
	s.nextID++
	s.inserted = append(s.inserted, entry)
	return entry, nil
}

func (s *stubRepo) RestoreEntry(_ context.Context, rec ExportRecord, _ []float32) (bool, error) {
	if _, exists := s.restored[rec.ID]; exists {
		return false, nil
	}
	s.restored[rec.ID] = rec
	return true, nil
}

func (s *stubRepo) Nearest(_ context.Context, _ []float32, k int) ([]Match, error) {
	s.nearestK = k
	if s.nearestErr != nil {
		return nil, s.nearestErr
	}
	return s.matches, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	return s.deleted[id], nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (Entry, bool, error) {
	for _, e := range s.inserted {
		if e.ID == id {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

func (s *stubRepo) List(_ context.Context, _, _ int) ([]Entry, error) { return s.inserted, nil }
func (s *stubRepo) Search(_ context.Context, _ string, _, _ int) ([]Entry, error) {
	return s.inserted, nil
}
func (s *stubRepo) ListAll(_ context.Context) ([]Entry, error) { return s.all, nil }
func (s *stubRepo) CategoryCounts(_ context.Context) ([]CategoryCount, error) {
	return nil, nil
}
func (s *stubRepo) Total(_ context.Context) (int64, error) { return int64(len(s.inserted)), nil }
func (s *stubRepo) RecentCount(_ context.Context, _ int) (int64, error) { return 0, nil }
func (s *stubRepo) CountsByDate(_ context.Context, _ int) ([]DateCount, error) {
	return nil, nil
}

type stubLog struct {
	records   []ExportRecord
	appendErr error
	removeErr error
	readErr   error
}

func (s *stubLog) Append(_ context.Context, rec ExportRecord) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *stubLog) Remove(_ context.Context, id int64) (bool, error) {
	if s.removeErr != nil {
		return false, s.removeErr
	}
	for i, rec := range s.records {
		if rec.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubLog) Update(_ context.Context, id int64, rec ExportRecord) (bool, error) {
	for i := range s.records {
		if s.records[i].ID == id {
			rec.ID = id
			s.records[i] = rec
			return true, nil
		}
	}
	return false, nil
}

func (s *stubLog) ReadAll(_ context.Context) ([]ExportRecord, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return append([]ExportRecord(nil), s.records...), nil
}

func (s *stubLog) Bytes(_ context.Context) ([]byte, error) { return []byte("[]"), nil }

type stubIndex struct {
	entries   map[int64]Entry
	upsertErr error
	deleteErr error
}

func newStubIndex() *stubIndex {
	return &stubIndex{entries: make(map[int64]Entry)}
}

func (s *stubIndex) Upsert(_ context.Context, entry Entry) (bool, error) {
	if s.upsertErr != nil {
		return false, s.upsertErr
	}
	if _, exists := s.entries[entry.ID]; exists {
		return false, nil
	}
	s.entries[entry.ID] = entry
	return true, nil
}

func (s *stubIndex) Delete(_ context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.entries, id)
	return nil
}

func (s *stubIndex) Query(_ context.Context, _ []float32, _ int) ([]Match, error) {
	return nil, nil
}

type stubRegistry struct {
	categories []string
	addErr     error
}

func (s *stubRegistry) Load(_ context.Context) ([]string, error) {
	return append([]string(nil), s.categories...), nil
}

func (s *stubRegistry) AddIfAbsent(_ context.Context, category string) (bool, error) {
	if s.addErr != nil {
		return false, s.addErr
	}
	for _, existing := range s.categories {
		if existing == category {
			return false, nil
		}
	}
	s.categories = append(s.categories, category)
	return true, nil
}

func (s *stubRegistry) RemoveIfPresent(_ context.Context, category string) (bool, error) {
	for i, existing := range s.categories {
		if existing == category {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRegistry) Exists(_ context.Context, category string) (bool, error) {
	for _, existing := range s.categories {
		if existing == category {
			return true, nil
		}
	}
	return false, nil
}

type stubStats struct {
	checks map[string]int64
}

func (s *stubStats) IncrementCheck(_ context.Context, canonical, _ string) error {
	if s.checks == nil {
		s.checks = make(map[string]int64)
	}
	s.checks[canonical]++
	return nil
}

func (s *stubStats) TopChecked(_ context.Context, _ int) ([]TrendingCheck, error) {
	return nil, nil
}

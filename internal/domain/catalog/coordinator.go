package catalog

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/faqstudio/backend/pkg/errors"
)

// DefaultCreatedBy is recorded when a submission does not name its curator.
const DefaultCreatedBy = "anonymous"

// Coordinator runs the cross-store write protocol: the canonical store is
// authoritative and transactional, everything after a successful commit is a
// best-effort mirror step handled through the reconciler. There is no
// cross-store transaction.
type Coordinator struct {
	embed      Embedder
	repo       EntryRepository
	mirrors    *Reconciler
	categories CategoryRegistry
	logger     *slog.Logger
}

// NewCoordinator wires up the consistency coordinator.
func NewCoordinator(embed Embedder, repo EntryRepository, mirrors *Reconciler, categories CategoryRegistry, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		embed:      embed,
		repo:       repo,
		mirrors:    mirrors,
		categories: categories,
		logger:     logger.With("component", "catalog.coordinator"),
	}
}

// Add accepts a curator submission. Success means the canonical commit went
// through; export log, index and registry updates are best-effort extensions
// whose failures leave a recoverable inconsistency window.
func (c *Coordinator) Add(ctx context.Context, req AddRequest) (AddResult, error) {
	question := strings.TrimSpace(req.Question)
	answer := strings.TrimSpace(req.Answer)
	category := strings.TrimSpace(req.Category)
	if question == "" || answer == "" || category == "" {
		return AddResult{}, apperrors.Wrap(CodeInvalidInput, "question, answer and category are required", nil)
	}
	createdBy := strings.TrimSpace(req.CreatedBy)
	if createdBy == "" {
		createdBy = DefaultCreatedBy
	}

	vector, err := c.embed.Embed(ctx, question)
	if err != nil {
		// nothing has been written anywhere
		return AddResult{}, err
	}

	entry, err := c.repo.Insert(ctx, Draft{
		Question:  question,
		Answer:    answer,
		Keywords:  strings.TrimSpace(req.Keywords),
		Category:  category,
		Embedding: vector,
		CreatedBy: createdBy,
	})
	if err != nil {
		return AddResult{}, apperrors.Wrap(CodeCanonicalWrite, "canonical insert failed", err)
	}

	outcome := c.mirrors.SyncUpsert(ctx, entry)
	if !outcome.ExportLogged || !outcome.Indexed {
		c.logger.Warn("entry accepted in degraded mode",
			"id", entry.ID, "export_logged", outcome.ExportLogged, "indexed", outcome.Indexed)
	}

	added, err := c.categories.AddIfAbsent(ctx, category)
	if err != nil {
		c.logger.Warn("category registry update failed", "category", category, "error", err)
		added = false
	}

	return AddResult{
		ID:            entry.ID,
		ExportLogged:  outcome.ExportLogged,
		Indexed:       outcome.Indexed,
		CategoryAdded: added,
	}, nil
}

// Delete removes an entry everywhere. A miss in the canonical store aborts
// with not_found and mutates nothing; mirror removals are best-effort.
func (c *Coordinator) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	deleted, err := c.repo.Delete(ctx, id)
	if err != nil {
		return DeleteResult{}, apperrors.Wrap(CodeCanonicalWrite, "canonical delete failed", err)
	}
	if !deleted {
		return DeleteResult{}, apperrors.Wrap(CodeNotFound, "question not found", nil)
	}

	outcome := c.mirrors.SyncRemove(ctx, id)
	return DeleteResult{DeletedID: id, ExportLogUpdated: outcome.ExportUpdated}, nil
}

// Get fetches a single canonical entry.
func (c *Coordinator) Get(ctx context.Context, id int64) (Entry, error) {
	entry, found, err := c.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, apperrors.Wrap(CodeCanonicalQuery, "lookup failed", err)
	}
	if !found {
		return Entry{}, apperrors.Wrap(CodeNotFound, "question not found", nil)
	}
	return entry, nil
}

// List pages through canonical entries, newest first.
func (c *Coordinator) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	entries, err := c.repo.List(ctx, sanitizeLimit(limit), sanitizeOffset(offset))
	if err != nil {
		return nil, apperrors.Wrap(CodeCanonicalQuery, "list failed", err)
	}
	return entries, nil
}

// Search matches the query against question, answer, keywords and category.
func (c *Coordinator) Search(ctx context.Context, query string, limit, offset int) ([]Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Wrap(CodeInvalidInput, "query cannot be empty", nil)
	}
	entries, err := c.repo.Search(ctx, query, sanitizeLimit(limit), sanitizeOffset(offset))
	if err != nil {
		return nil, apperrors.Wrap(CodeCanonicalQuery, "search failed", err)
	}
	return entries, nil
}

// Categories returns the registry content.
func (c *Coordinator) Categories(ctx context.Context) ([]string, error) {
	return c.categories.Load(ctx)
}

// RemoveCategory drops a label from the registry. Entries referencing it are
// untouched; the category field is a soft reference.
func (c *Coordinator) RemoveCategory(ctx context.Context, category string) (bool, error) {
	return c.categories.RemoveIfPresent(ctx, category)
}

// CategoryStats returns per-category entry counts.
func (c *Coordinator) CategoryStats(ctx context.Context) ([]CategoryCount, error) {
	counts, err := c.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, apperrors.Wrap(CodeCanonicalQuery, "category stats failed", err)
	}
	return counts, nil
}

// TotalStats returns the total entry count.
func (c *Coordinator) TotalStats(ctx context.Context) (int64, error) {
	total, err := c.repo.Total(ctx)
	if err != nil {
		return 0, apperrors.Wrap(CodeCanonicalQuery, "total stats failed", err)
	}
	return total, nil
}

// RecentStats counts entries created in the last days.
func (c *Coordinator) RecentStats(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		days = 7
	}
	count, err := c.repo.RecentCount(ctx, days)
	if err != nil {
		return 0, apperrors.Wrap(CodeCanonicalQuery, "recent stats failed", err)
	}
	return count, nil
}

// DateStats returns per-day entry counts over the last limit days.
func (c *Coordinator) DateStats(ctx context.Context, limit int) ([]DateCount, error) {
	if limit < 1 {
		limit = 30
	}
	counts, err := c.repo.CountsByDate(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(CodeCanonicalQuery, "by-date stats failed", err)
	}
	return counts, nil
}

// PendingMirrorOps exposes the reconciler queue depth for health reporting.
func (c *Coordinator) PendingMirrorOps() int {
	return c.mirrors.Pending()
}

func sanitizeLimit(limit int) int {
	if limit < 1 || limit > 500 {
		return 50
	}
	return limit
}

func sanitizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

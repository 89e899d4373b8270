package catalog

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/faqstudio/backend/pkg/errors"
)

// Repair rebuilds canonical and secondary state from the export log after a
// detected inconsistency. Every step is idempotent by id, so re-running a
// repair never duplicates rows.
type Repair struct {
	embed    Embedder
	repo     EntryRepository
	log      ExportLog
	index    VectorIndex
	throttle time.Duration
	logger   *slog.Logger
}

// NewRepair wires up replay repair.
func NewRepair(cfg Config, embed Embedder, repo EntryRepository, log ExportLog, index VectorIndex, logger *slog.Logger) *Repair {
	return &Repair{
		embed:    embed,
		repo:     repo,
		log:      log,
		index:    index,
		throttle: cfg.ReplayThrottle,
		logger:   logger.With("component", "catalog.repair"),
	}
}

// RestoreCanonical re-inserts every export-log record into the canonical
// store. Embeddings are not persisted in the log, so each question is
// re-embedded; calls are throttled to avoid overwhelming the provider.
// A corrupt log surfaces as corrupt_state instead of silently restoring
// nothing.
func (r *Repair) RestoreCanonical(ctx context.Context) (RepairReport, error) {
	records, err := r.log.ReadAll(ctx)
	if err != nil {
		return RepairReport{}, err
	}
	report := RepairReport{Total: len(records)}
	r.logger.Info("replay repair started", "records", report.Total)

	for i, rec := range records {
		if i > 0 {
			r.pause(ctx)
		}
		vector, err := r.embed.Embed(ctx, rec.Question)
		if err != nil {
			r.logger.Error("replay embed failed", "id", rec.ID, "error", err)
			report.Failed++
			continue
		}
		inserted, err := r.repo.RestoreEntry(ctx, rec, vector)
		if err != nil {
			r.logger.Error("replay insert failed", "id", rec.ID, "error", err)
			report.Failed++
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Skipped++
		}
	}

	r.logger.Info("replay repair finished",
		"inserted", report.Inserted, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// RebuildIndex repopulates the secondary index from canonical entries, using
// the embeddings already stored there. Upserts are idempotent; already
// indexed entries count as skipped.
func (r *Repair) RebuildIndex(ctx context.Context) (RepairReport, error) {
	entries, err := r.repo.ListAll(ctx)
	if err != nil {
		return RepairReport{}, apperrors.Wrap(CodeCanonicalQuery, "list for reindex failed", err)
	}
	report := RepairReport{Total: len(entries)}

	for i, entry := range entries {
		if i > 0 {
			r.pause(ctx)
		}
		added, err := r.index.Upsert(ctx, entry)
		if err != nil {
			r.logger.Error("reindex upsert failed", "id", entry.ID, "error", err)
			report.Failed++
			continue
		}
		if added {
			report.Inserted++
		} else {
			report.Skipped++
		}
	}

	r.logger.Info("index rebuild finished",
		"inserted", report.Inserted, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (r *Repair) pause(ctx context.Context) {
	if r.throttle <= 0 {
		return
	}
	timer := time.NewTimer(r.throttle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

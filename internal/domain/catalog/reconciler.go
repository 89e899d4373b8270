package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/faqstudio/backend/pkg/util"
)

type mirrorOpKind string

const (
	opUpsert mirrorOpKind = "upsert"
	opRemove mirrorOpKind = "remove"
)

type mirrorTarget string

const (
	targetExportLog mirrorTarget = "export_log"
	targetIndex     mirrorTarget = "vector_index"
)

// mirrorOp is one replayable, idempotent mirror mutation. Upserts carry the
// full entry so a retry never depends on canonical-store availability.
type mirrorOp struct {
	Kind   mirrorOpKind
	Target mirrorTarget
	Entry  Entry
	ID     int64
}

// MirrorOutcome reports which mirror writes succeeded during a synchronous
// flush. The canonical write has already committed by the time these run, so
// a false flag means a known inconsistency window, not a failed operation.
type MirrorOutcome struct {
	ExportLogged  bool
	ExportUpdated bool
	Indexed       bool
}

// Reconciler applies mirror mutations to the export log and the secondary
// index. Failed operations stay queued and are retried by Run on a fixed
// interval, which makes the eventual-consistency window explicit instead of
// incidental.
type Reconciler struct {
	log       ExportLog
	index     VectorIndex
	snapshots SnapshotStore
	logger    *slog.Logger
	interval  time.Duration

	mu      sync.Mutex
	pending []mirrorOp
	removed map[int64]struct{}
}

// NewReconciler builds the mirror reconciler. snapshots may be nil.
func NewReconciler(log ExportLog, index VectorIndex, snapshots SnapshotStore, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reconciler{
		log:       log,
		index:     index,
		snapshots: snapshots,
		interval:  interval,
		logger:    logger.With("component", "catalog.reconciler"),
		removed:   make(map[int64]struct{}),
	}
}

// SyncUpsert mirrors a freshly committed entry into both stores right away.
// Failures are queued for retry and reported in the outcome, never returned
// as errors.
func (r *Reconciler) SyncUpsert(ctx context.Context, entry Entry) MirrorOutcome {
	var out MirrorOutcome

	r.mu.Lock()
	delete(r.removed, entry.ID)
	r.mu.Unlock()

	if err := r.log.Append(ctx, ExportRecordOf(entry)); err != nil {
		r.enqueue(mirrorOp{Kind: opUpsert, Target: targetExportLog, Entry: entry}, err)
	} else {
		out.ExportLogged = true
	}

	if _, err := r.index.Upsert(ctx, entry); err != nil {
		r.enqueue(mirrorOp{Kind: opUpsert, Target: targetIndex, Entry: entry}, err)
	} else {
		out.Indexed = true
	}

	return out
}

// SyncRemove mirrors a canonical delete. A record already absent from the
// export log is tolerated and reported through ExportUpdated.
func (r *Reconciler) SyncRemove(ctx context.Context, id int64) MirrorOutcome {
	var out MirrorOutcome

	// A queued upsert for this id is now stale: retrying it after the
	// canonical delete would resurrect the record in a mirror. Drop it and
	// tombstone the id so an in-flight retry is discarded too.
	r.mu.Lock()
	kept := r.pending[:0]
	for _, op := range r.pending {
		if op.Kind == opUpsert && op.Entry.ID == id {
			continue
		}
		kept = append(kept, op)
	}
	r.pending = kept
	r.removed[id] = struct{}{}
	r.mu.Unlock()

	removed, err := r.log.Remove(ctx, id)
	if err != nil {
		r.enqueue(mirrorOp{Kind: opRemove, Target: targetExportLog, ID: id}, err)
	} else {
		out.ExportLogged = true
		out.ExportUpdated = removed
	}

	if err := r.index.Delete(ctx, id); err != nil {
		r.enqueue(mirrorOp{Kind: opRemove, Target: targetIndex, ID: id}, err)
	} else {
		out.Indexed = true
	}

	return out
}

// Pending reports the retry queue depth.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush retries every queued operation once. Operations that fail again are
// kept for the next round.
func (r *Reconciler) Flush(ctx context.Context) {
	r.mu.Lock()
	ops := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(ops) == 0 {
		return
	}

	var kept []mirrorOp
	applied := 0
	for _, op := range ops {
		if err := r.apply(ctx, op); err != nil {
			r.logger.Warn("mirror retry failed", "kind", op.Kind, "target", op.Target, "id", op.entryID(), "error", err)
			kept = append(kept, op)
			continue
		}
		applied++
	}

	r.mu.Lock()
	r.pending = append(kept, r.pending...)
	r.mu.Unlock()

	if applied > 0 {
		r.logger.Info("mirror retry applied", "applied", applied, "remaining", len(kept))
		r.snapshot(ctx)
	}
}

// Run drives periodic retries and snapshot uploads until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// Snapshot uploads the current export log to the snapshot store, when one is
// configured.
func (r *Reconciler) Snapshot(ctx context.Context) error {
	if r.snapshots == nil {
		return nil
	}
	data, err := r.log.Bytes(ctx)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("questions-%s-%s.json", util.NowUTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	return r.snapshots.Upload(ctx, name, data)
}

func (r *Reconciler) snapshot(ctx context.Context) {
	if r.snapshots == nil {
		return
	}
	if err := r.Snapshot(ctx); err != nil {
		r.logger.Warn("export log snapshot failed", "error", err)
	}
}

func (r *Reconciler) enqueue(op mirrorOp, cause error) {
	r.logger.Warn("mirror write failed, queued for retry",
		"code", CodeMirrorWrite, "kind", op.Kind, "target", op.Target, "id", op.entryID(), "error", cause)
	r.mu.Lock()
	r.pending = append(r.pending, op)
	r.mu.Unlock()
}

func (r *Reconciler) apply(ctx context.Context, op mirrorOp) error {
	if op.Kind == opUpsert && r.wasRemoved(op.Entry.ID) {
		return nil
	}
	switch op.Target {
	case targetExportLog:
		if op.Kind == opUpsert {
			return r.appendIfAbsent(ctx, op.Entry)
		}
		_, err := r.log.Remove(ctx, op.ID)
		return err
	case targetIndex:
		if op.Kind == opUpsert {
			_, err := r.index.Upsert(ctx, op.Entry)
			return err
		}
		return r.index.Delete(ctx, op.ID)
	}
	return fmt.Errorf("unknown mirror target %q", op.Target)
}

// appendIfAbsent keeps export-log retries idempotent: a retried append after
// a partially observed failure must not duplicate the record.
func (r *Reconciler) appendIfAbsent(ctx context.Context, entry Entry) error {
	records, err := r.log.ReadAll(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.ID == entry.ID {
			return nil
		}
	}
	return r.log.Append(ctx, ExportRecordOf(entry))
}

func (r *Reconciler) wasRemoved(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.removed[id]
	return ok
}

func (op mirrorOp) entryID() int64 {
	if op.Kind == opUpsert {
		return op.Entry.ID
	}
	return op.ID
}

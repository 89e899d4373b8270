package catalog

import "context"

// Embedder turns text into a fixed-dimension vector. Implementations must be
// safe for concurrent reuse and must fail with an embedding_unavailable error
// instead of retrying internally.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EntryRepository is the canonical store of record. It owns identity
// assignment; Insert is the only operation requiring transactional atomicity.
type EntryRepository interface {
	Insert(ctx context.Context, draft Draft) (Entry, error)
	// RestoreEntry inserts a row preserving its original id, skipping when
	// the id already exists. Used by replay repair; must be idempotent.
	RestoreEntry(ctx context.Context, rec ExportRecord, embedding []float32) (bool, error)
	Nearest(ctx context.Context, embedding []float32, k int) ([]Match, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (Entry, bool, error)
	List(ctx context.Context, limit, offset int) ([]Entry, error)
	Search(ctx context.Context, query string, limit, offset int) ([]Entry, error)
	// ListAll returns every entry including its stored embedding, for
	// rebuilding the secondary index.
	ListAll(ctx context.Context) ([]Entry, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	Total(ctx context.Context) (int64, error)
	RecentCount(ctx context.Context, days int) (int64, error)
	CountsByDate(ctx context.Context, limit int) ([]DateCount, error)
}

// ExportLog is the append-only durable JSON mirror used for backup and
// replay-based recovery.
type ExportLog interface {
	Append(ctx context.Context, rec ExportRecord) error
	// Remove reports false when no record matched; a desynchronized log is
	// tolerated, not an error.
	Remove(ctx context.Context, id int64) (bool, error)
	// Update rewrites a record in place. Exposed as a log capability only;
	// the consistency protocol never updates entries.
	Update(ctx context.Context, id int64, rec ExportRecord) (bool, error)
	ReadAll(ctx context.Context) ([]ExportRecord, error)
	// Bytes returns the raw serialized log, for snapshot uploads.
	Bytes(ctx context.Context) ([]byte, error)
}

// VectorIndex is the secondary nearest-neighbour index mirroring canonical
// entries.
type VectorIndex interface {
	// Upsert is idempotent by id; it reports false when the entry was
	// already present and was skipped.
	Upsert(ctx context.Context, entry Entry) (bool, error)
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, embedding []float32, k int) ([]Match, error)
}

// CategoryRegistry is the small persisted set of category labels, grown on
// demand. It never shrinks automatically.
type CategoryRegistry interface {
	Load(ctx context.Context) ([]string, error)
	AddIfAbsent(ctx context.Context, category string) (bool, error)
	RemoveIfPresent(ctx context.Context, category string) (bool, error)
	Exists(ctx context.Context, category string) (bool, error)
}

// CheckStats tracks which questions curators check most often. Best-effort.
type CheckStats interface {
	IncrementCheck(ctx context.Context, canonical, display string) error
	TopChecked(ctx context.Context, limit int) ([]TrendingCheck, error)
}

// SnapshotStore uploads export-log snapshots to durable object storage.
type SnapshotStore interface {
	Upload(ctx context.Context, name string, data []byte) error
}

package catalog

// Failure codes carried by pkg/errors.AppError. The authoritative steps
// (embedding, canonical write) always surface to the caller; mirror failures
// stay degraded-mode warnings.
const (
	CodeInvalidInput         = "invalid_input"
	CodeEmbeddingUnavailable = "embedding_unavailable"
	CodeCanonicalWrite       = "canonical_write_failure"
	CodeCanonicalQuery       = "canonical_query_failure"
	CodeNotFound             = "not_found"
	CodeMirrorWrite          = "mirror_write_failure"
	CodeCorruptState         = "corrupt_state"
)

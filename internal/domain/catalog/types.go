package catalog

import "time"

// Entry is the canonical FAQ question record. Identity is assigned exactly
// once by the canonical store and mirrored verbatim into the export log and
// the secondary index.
type Entry struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Keywords  string    `json:"keywords"`
	Category  string    `json:"category"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// Draft carries the fields of an entry prior to identity assignment.
type Draft struct {
	Question  string
	Answer    string
	Keywords  string
	Category  string
	Embedding []float32
	CreatedBy string
}

// ExportRecord is the shape persisted in the export log. Embeddings are not
// persisted there; replay re-embeds the question text.
type ExportRecord struct {
	ID        int64  `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Keywords  string `json:"keywords"`
	Category  string `json:"category"`
	CreatedBy string `json:"created_by"`
}

// Match is a nearest-neighbour result scored under the cosine convention
// (similarity = 1 - distance).
type Match struct {
	ID         int64   `json:"id"`
	Question   string  `json:"question"`
	Similarity float64 `json:"sim"`
}

// CheckRequest asks whether a candidate question is already covered.
type CheckRequest struct {
	Question  string
	K         int
	Threshold *float64
}

// DuplicateReport is the outcome of a duplicate check. Results are ordered by
// descending similarity, i.e. the store's distance-ascending order.
type DuplicateReport struct {
	Duplicate bool    `json:"duplicate"`
	Threshold float64 `json:"threshold"`
	Results   []Match `json:"results"`
}

// AddRequest carries a curator submission.
type AddRequest struct {
	Question  string
	Answer    string
	Keywords  string
	Category  string
	CreatedBy string
}

// AddResult reports an accepted entry. Success means the canonical commit
// went through; the mirror flags only describe degraded mode.
type AddResult struct {
	ID            int64 `json:"id"`
	ExportLogged  bool  `json:"-"`
	Indexed       bool  `json:"-"`
	CategoryAdded bool  `json:"-"`
}

// DeleteResult reports a completed delete.
type DeleteResult struct {
	DeletedID        int64 `json:"deleted_id"`
	ExportLogUpdated bool  `json:"json_updated"`
}

// RepairReport summarizes one replay repair run.
type RepairReport struct {
	Total    int `json:"total"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// CategoryCount is a per-category entry tally.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"cnt"`
}

// DateCount is a per-day entry tally.
type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// TrendingCheck is a frequently duplicate-checked question.
type TrendingCheck struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// ExportRecordOf projects an entry into its export-log shape.
func ExportRecordOf(e Entry) ExportRecord {
	return ExportRecord{
		ID:        e.ID,
		Question:  e.Question,
		Answer:    e.Answer,
		Keywords:  e.Keywords,
		Category:  e.Category,
		CreatedBy: e.CreatedBy,
	}
}

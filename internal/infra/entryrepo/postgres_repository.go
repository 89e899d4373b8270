package entryrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/faqstudio/backend/internal/domain/catalog"
)

// PostgresRepository implements catalog.EntryRepository on pgx + pgvector.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert adds a new row and assigns its identity in one statement. pgx runs
// the single INSERT atomically; two concurrent inserts always receive
// distinct ids from the sequence.
func (r *PostgresRepository) Insert(ctx context.Context, draft catalog.Draft) (catalog.Entry, error) {
	entry := catalog.Entry{
		Question:  draft.Question,
		Answer:    draft.Answer,
		Keywords:  draft.Keywords,
		Category:  draft.Category,
		Embedding: draft.Embedding,
		CreatedBy: draft.CreatedBy,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO questions (question, answer, keywords, category, embedding, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, draft.Question, draft.Answer, draft.Keywords, draft.Category,
		pgvector.NewVector(draft.Embedding), draft.CreatedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return catalog.Entry{}, err
	}
	return entry, nil
}

// RestoreEntry re-inserts a row under its original id, skipping existing ids.
func (r *PostgresRepository) RestoreEntry(ctx context.Context, rec catalog.ExportRecord, embedding []float32) (bool, error) {
	createdBy := rec.CreatedBy
	if createdBy == "" {
		createdBy = catalog.DefaultCreatedBy
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO questions (id, question, answer, keywords, category, embedding, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, rec.Question, rec.Answer, rec.Keywords, rec.Category,
		pgvector.NewVector(embedding), createdBy)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		// keep the sequence ahead of replayed ids
		if _, err := r.pool.Exec(ctx, `
			SELECT setval(pg_get_serial_sequence('questions', 'id'),
			              GREATEST((SELECT MAX(id) FROM questions), 1))
		`); err != nil {
			return true, fmt.Errorf("advance id sequence: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// Nearest returns the k entries closest to the embedding under the cosine
// distance operator, similarity = 1 - distance.
func (r *PostgresRepository) Nearest(ctx context.Context, embedding []float32, k int) ([]catalog.Match, error) {
	vec := pgvector.NewVector(embedding)
	rows, err := r.pool.Query(ctx, `
		SELECT id, question, 1 - (embedding <=> $1) AS sim
		FROM questions
		ORDER BY embedding <=> $1 ASC
		LIMIT $2
	`, vec, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []catalog.Match
	for rows.Next() {
		var m catalog.Match
		if err := rows.Scan(&m.ID, &m.Question, &m.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Delete removes a row, reporting whether anything matched.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Get fetches a single row.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (catalog.Entry, bool, error) {
	var entry catalog.Entry
	err := r.pool.QueryRow(ctx, `
		SELECT id, question, answer, keywords, category, created_at, created_by
		FROM questions
		WHERE id = $1
	`, id).Scan(&entry.ID, &entry.Question, &entry.Answer, &entry.Keywords,
		&entry.Category, &entry.CreatedAt, &entry.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Entry{}, false, nil
	}
	if err != nil {
		return catalog.Entry{}, false, err
	}
	return entry, true, nil
}

// List pages through entries, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]catalog.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, question, answer, keywords, category, created_at, created_by
		FROM questions
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search matches the query against question, answer, keywords and category.
func (r *PostgresRepository) Search(ctx context.Context, query string, limit, offset int) ([]catalog.Entry, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT id, question, answer, keywords, category, created_at, created_by
		FROM questions
		WHERE question ILIKE $1 OR answer ILIKE $1 OR keywords ILIKE $1 OR category ILIKE $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, pattern, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListAll streams every entry including its stored embedding.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, question, answer, keywords, category, embedding, created_at, created_by
		FROM questions
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var (
			entry catalog.Entry
			vec   pgvector.Vector
		)
		if err := rows.Scan(&entry.ID, &entry.Question, &entry.Answer, &entry.Keywords,
			&entry.Category, &vec, &entry.CreatedAt, &entry.CreatedBy); err != nil {
			return nil, err
		}
		entry.Embedding = vec.Slice()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CategoryCounts groups entry counts by category.
func (r *PostgresRepository) CategoryCounts(ctx context.Context) ([]catalog.CategoryCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category, COUNT(*) AS cnt
		FROM questions
		GROUP BY category
		ORDER BY cnt DESC, category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []catalog.CategoryCount
	for rows.Next() {
		var c catalog.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Total counts all entries.
func (r *PostgresRepository) Total(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&total)
	return total, err
}

// RecentCount counts entries created within the last days.
func (r *PostgresRepository) RecentCount(ctx context.Context, days int) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM questions
		WHERE created_at >= NOW() - make_interval(days => $1)
	`, days).Scan(&count)
	return count, err
}

// CountsByDate groups entry counts per creation day.
func (r *PostgresRepository) CountsByDate(ctx context.Context, limit int) ([]catalog.DateCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DATE(created_at)::text AS date, COUNT(*) AS count
		FROM questions
		WHERE created_at >= NOW() - make_interval(days => $1)
		GROUP BY DATE(created_at)
		ORDER BY date DESC
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []catalog.DateCount
	for rows.Next() {
		var c catalog.DateCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func scanEntries(rows pgx.Rows) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	for rows.Next() {
		var entry catalog.Entry
		if err := rows.Scan(&entry.ID, &entry.Question, &entry.Answer, &entry.Keywords,
			&entry.Category, &entry.CreatedAt, &entry.CreatedBy); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

var _ catalog.EntryRepository = (*PostgresRepository)(nil)

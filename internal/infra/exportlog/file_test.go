package exportlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faqstudio/backend/internal/domain/catalog"
	apperrors "github.com/faqstudio/backend/pkg/errors"
)

func newTestLog(t *testing.T) (*FileLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	log, err := NewFileLog(path)
	require.NoError(t, err)
	return log, path
}

func TestNewFileLogBootstrapsEmptyArray(t *testing.T) {
	_, path := newTestLog(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestAppendAndReadRoundTrip(t *testing.T) {
	log, path := newTestLog(t)
	ctx := context.Background()

	rec := catalog.ExportRecord{
		ID:        1,
		Question:  "Gecikme zammı nasıl hesaplanır?",
		Answer:    "Aylık oran üzerinden <gün sayısına> göre hesaplanır.",
		Keywords:  "gecikme, zam",
		Category:  "tahakkuk",
		CreatedBy: "anonymous",
	}
	require.NoError(t, log.Append(ctx, rec))

	records, err := log.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, rec, records[0])

	// non-ASCII text and angle brackets stay verbatim on disk
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Gecikme zammı")
	require.Contains(t, string(data), "<gün sayısına>")
	require.NotContains(t, string(data), "\\u003c")
}

func TestReadToleratesByteOrderMark(t *testing.T) {
	log, path := newTestLog(t)
	payload := "\uFEFF" + `[{"id": 3, "question": "bom", "answer": "ok", "keywords": "", "category": "diger", "created_by": "anonymous"}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	records, err := log.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(3), records[0].ID)
}

func TestReadTreatsEmptyFileAsEmptyLog(t *testing.T) {
	log, path := newTestLog(t)
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	records, err := log.ReadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestCorruptLogSurfacesExplicitly(t *testing.T) {
	log, path := newTestLog(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"`), 0o644))

	_, err := log.ReadAll(context.Background())
	require.Error(t, err)
	require.Equal(t, catalog.CodeCorruptState, apperrors.Code(err))

	// a corrupt log also blocks writes instead of clobbering the file
	err = log.Append(context.Background(), catalog.ExportRecord{ID: 9})
	require.Error(t, err)
	require.Equal(t, catalog.CodeCorruptState, apperrors.Code(err))
}

func TestRemoveReportsMatch(t *testing.T) {
	log, _ := newTestLog(t)
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, catalog.ExportRecord{ID: 1}))
	require.NoError(t, log.Append(ctx, catalog.ExportRecord{ID: 2}))

	removed, err := log.Remove(ctx, 1)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = log.Remove(ctx, 42)
	require.NoError(t, err)
	require.False(t, removed)

	records, err := log.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(2), records[0].ID)
}

func TestUpdateRewritesInPlace(t *testing.T) {
	log, _ := newTestLog(t)
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, catalog.ExportRecord{ID: 1, Answer: "old"}))

	updated, err := log.Update(ctx, 1, catalog.ExportRecord{Answer: "new"})
	require.NoError(t, err)
	require.True(t, updated)

	records, err := log.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), records[0].ID)
	require.Equal(t, "new", records[0].Answer)

	updated, err = log.Update(ctx, 42, catalog.ExportRecord{})
	require.NoError(t, err)
	require.False(t, updated)
}

func TestWrittenFileIsIndented(t *testing.T) {
	log, path := newTestLog(t)
	require.NoError(t, log.Append(context.Background(), catalog.ExportRecord{ID: 1, Question: "q"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "[\n  {"))
}

package exportlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/faqstudio/backend/internal/domain/catalog"
	apperrors "github.com/faqstudio/backend/pkg/errors"
)

// FileLog persists export records as a single pretty-printed JSON array. It
// tolerates a UTF-8 byte-order mark on read and keeps non-ASCII characters
// verbatim on write. A parse failure surfaces as corrupt_state so callers can
// fail loudly instead of silently treating data as lost.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog builds the log and ensures its file exists.
func NewFileLog(path string) (*FileLog, error) {
	l := &FileLog{path: path}
	if err := l.ensureFile(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLog) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create export log dir: %w", err)
	}
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return os.WriteFile(l.path, []byte("[]"), 0o644)
	}
	return nil
}

// Append adds a record to the end of the log.
func (l *FileLog) Append(_ context.Context, rec catalog.ExportRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readLocked()
	if err != nil {
		return err
	}
	records = append(records, rec)
	return l.writeLocked(records)
}

// Remove drops the record with the given id, reporting whether one matched.
// A desynchronized log with no match is tolerated, not an error.
func (l *FileLog) Remove(_ context.Context, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readLocked()
	if err != nil {
		return false, err
	}
	kept := records[:0]
	removed := false
	for _, rec := range records {
		if rec.ID == id {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !removed {
		return false, nil
	}
	return true, l.writeLocked(kept)
}

// Update rewrites the record with the given id in place. This capability is
// not part of the consistency protocol; the core never updates entries.
func (l *FileLog) Update(_ context.Context, id int64, rec catalog.ExportRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readLocked()
	if err != nil {
		return false, err
	}
	for i := range records {
		if records[i].ID == id {
			rec.ID = id
			records[i] = rec
			return true, l.writeLocked(records)
		}
	}
	return false, nil
}

// ReadAll returns every record in log order.
func (l *FileLog) ReadAll(_ context.Context) ([]catalog.ExportRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

// Bytes returns the raw serialized log for snapshot uploads.
func (l *FileLog) Bytes(_ context.Context) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []byte("[]"), nil
		}
		return nil, err
	}
	return data, nil
}

func (l *FileLog) readLocked() ([]catalog.ExportRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []catalog.ExportRecord{}, nil
		}
		return nil, fmt.Errorf("read export log: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	if strings.TrimSpace(string(data)) == "" {
		return []catalog.ExportRecord{}, nil
	}
	var records []catalog.ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.Wrap(catalog.CodeCorruptState,
			fmt.Sprintf("export log %s is not valid JSON", l.path), err)
	}
	return records, nil
}

func (l *FileLog) writeLocked(records []catalog.ExportRecord) error {
	if records == nil {
		records = []catalog.ExportRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode export log: %w", err)
	}

	// write-then-rename keeps the log readable if the process dies mid-write
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace export log: %w", err)
	}
	return nil
}

var _ catalog.ExportLog = (*FileLog)(nil)

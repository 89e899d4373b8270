package categoryfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/faqstudio/backend/internal/domain/catalog"
	apperrors "github.com/faqstudio/backend/pkg/errors"
)

// Registry persists the category label set as a JSON array of strings. The
// file is re-sorted on every save; nothing else depends on its order.
type Registry struct {
	mu       sync.Mutex
	path     string
	defaults []string
}

// NewRegistry builds the registry, bootstrapping the file with the default
// labels when no persisted state exists.
func NewRegistry(path string, defaults []string) (*Registry, error) {
	r := &Registry{path: path, defaults: append([]string(nil), defaults...)}
	if err := r.ensureFile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create categories dir: %w", err)
	}
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return r.save(r.defaults)
	}
	return nil
}

// Load implements catalog.CategoryRegistry.
func (r *Registry) Load(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// AddIfAbsent implements catalog.CategoryRegistry; true means newly added.
func (r *Registry) AddIfAbsent(_ context.Context, category string) (bool, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	categories, err := r.loadLocked()
	if err != nil {
		return false, err
	}
	for _, existing := range categories {
		if existing == category {
			return false, nil
		}
	}
	return true, r.save(append(categories, category))
}

// RemoveIfPresent implements catalog.CategoryRegistry.
func (r *Registry) RemoveIfPresent(_ context.Context, category string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	categories, err := r.loadLocked()
	if err != nil {
		return false, err
	}
	kept := categories[:0]
	removed := false
	for _, existing := range categories {
		if existing == category {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return false, nil
	}
	return true, r.save(kept)
}

// Exists implements catalog.CategoryRegistry.
func (r *Registry) Exists(_ context.Context, category string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	categories, err := r.loadLocked()
	if err != nil {
		return false, err
	}
	for _, existing := range categories {
		if existing == category {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registry) loadLocked() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return append([]string(nil), r.defaults...), nil
		}
		return nil, fmt.Errorf("read categories: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	if strings.TrimSpace(string(data)) == "" {
		return append([]string(nil), r.defaults...), nil
	}
	var categories []string
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, apperrors.Wrap(catalog.CodeCorruptState,
			fmt.Sprintf("categories file %s is not valid JSON", r.path), err)
	}
	return categories, nil
}

func (r *Registry) save(categories []string) error {
	if categories == nil {
		categories = []string{}
	}
	sort.Strings(categories)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(categories); err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write categories: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace categories: %w", err)
	}
	return nil
}

var _ catalog.CategoryRegistry = (*Registry)(nil)

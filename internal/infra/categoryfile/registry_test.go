package categoryfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faqstudio/backend/internal/domain/catalog"
	apperrors "github.com/faqstudio/backend/pkg/errors"
)

var testDefaults = []string{"tahakkuk", "tahsilat", "diger"}

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.json")
	registry, err := NewRegistry(path, testDefaults)
	require.NoError(t, err)
	return registry, path
}

func TestNewRegistryBootstrapsDefaults(t *testing.T) {
	registry, _ := newTestRegistry(t)

	categories, err := registry.Load(context.Background())
	require.NoError(t, err)
	// persisted sorted
	require.Equal(t, []string{"diger", "tahakkuk", "tahsilat"}, categories)
}

func TestAddIfAbsent(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	added, err := registry.AddIfAbsent(ctx, "iade")
	require.NoError(t, err)
	require.True(t, added)

	added, err = registry.AddIfAbsent(ctx, "iade")
	require.NoError(t, err)
	require.False(t, added)

	added, err = registry.AddIfAbsent(ctx, "   ")
	require.NoError(t, err)
	require.False(t, added)

	categories, err := registry.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"diger", "iade", "tahakkuk", "tahsilat"}, categories)
}

func TestRemoveIfPresent(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	removed, err := registry.RemoveIfPresent(ctx, "diger")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = registry.RemoveIfPresent(ctx, "diger")
	require.NoError(t, err)
	require.False(t, removed)

	exists, err := registry.Exists(ctx, "diger")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCorruptRegistrySurfacesExplicitly(t *testing.T) {
	registry, path := newTestRegistry(t)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := registry.Load(context.Background())
	require.Error(t, err)
	require.Equal(t, catalog.CodeCorruptState, apperrors.Code(err))
}

func TestLoadToleratesByteOrderMark(t *testing.T) {
	registry, path := newTestRegistry(t)
	payload := "\uFEFF" + `["tahakkuk", "iade"]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	categories, err := registry.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"tahakkuk", "iade"}, categories)
}

func TestEmptyFileFallsBackToDefaults(t *testing.T) {
	registry, path := newTestRegistry(t)
	require.NoError(t, os.WriteFile(path, []byte(" "), 0o644))

	categories, err := registry.Load(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, testDefaults, categories)
}

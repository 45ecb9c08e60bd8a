package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/survey/pkg/adapters/file"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ports.RunStateStoreContract(t, store)
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".survey", "sessions"), file.NewStore("").BasePath)
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	store := file.NewStore(t.TempDir())
	snap := domain.NewSnapshot(domain.NewState("Start"))

	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, store.Save(ctx, id, snap), id)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.NewStore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))
	_, err := store.Load(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.NewStore(dir)

	require.NoError(t, store.Save(ctx, "b", domain.NewSnapshot(domain.NewState("Start"))))
	require.NoError(t, store.Save(ctx, "a", domain.NewSnapshot(domain.NewState("Start"))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	empty, err := file.NewStore(filepath.Join(dir, "missing")).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

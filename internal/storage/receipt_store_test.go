package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *LocalReceiptStore {
	t.Helper()
	return NewLocalReceiptStore(t.TempDir(), zap.NewNop())
}

func TestReceiptStore_SaveResolveDelete(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Save([]byte("fake-pdf"), "receipt.pdf")
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(key))

	path, err := store.Resolve(key)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-pdf"), content)

	require.NoError(t, store.Delete(key))
	_, err = store.Resolve(key)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestReceiptStore_SaveDefaultsExtension(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Save([]byte("bytes"), "receipt")
	require.NoError(t, err)
	assert.Equal(t, ".dat", filepath.Ext(key))
}

func TestReceiptStore_DeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Save([]byte("bytes"), "receipt.png")
	require.NoError(t, err)
	require.NoError(t, store.Delete(key))
	require.NoError(t, store.Delete(key), "second delete of a missing file succeeds")
}

func TestReceiptStore_RejectsPathTraversal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Resolve("../../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes upload directory")

	require.Error(t, store.Delete("../outside.txt"))
}

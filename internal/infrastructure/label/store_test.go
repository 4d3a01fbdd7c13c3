package label

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

func newTestStore(t *testing.T) *FileSystemStore {
	t.Helper()
	store, err := NewFileSystemStore(&FileSystemStoreConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://erp.local/api/v1/labels",
	})
	require.NoError(t, err)
	return store
}

func TestFileSystemStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, err := store.Store(ctx, &StoreRequest{
		Extension:   "zpl",
		ContentType: "text/plain",
		Data:        []byte("^XA^FDTest^XZ"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Path, ".zpl"))
	assert.True(t, strings.HasPrefix(result.URL, "http://erp.local/api/v1/labels/"))
	assert.Equal(t, int64(13), result.Size)

	reader, err := store.Get(ctx, result.Path)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "^XA^FDTest^XZ", string(data))
}

func TestFileSystemStoreGeneratesUniqueNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Store(ctx, &StoreRequest{Extension: "png", Data: []byte("one")})
	require.NoError(t, err)
	second, err := store.Store(ctx, &StoreRequest{Extension: "png", Data: []byte("two")})
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
}

func TestFileSystemStoreRejectsEmptyData(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Store(context.Background(), &StoreRequest{Extension: "png"})
	assert.ErrorIs(t, err, shipping.ErrLabelUnavailable)
}

func TestFileSystemStoreBlocksTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	paths := []string{
		"../outside.zpl",
		"a/../../outside.zpl",
		"/etc/passwd",
	}
	for _, p := range paths {
		_, err := store.Get(ctx, p)
		assert.Error(t, err, p)
		assert.Error(t, store.Delete(ctx, p), p)
	}
}

func TestFileSystemStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "2026/01/nonexistent.png")
	assert.ErrorIs(t, err, shipping.ErrLabelUnavailable)
}

func TestFileSystemStoreDeleteMissingIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), "2026/01/nonexistent.png"))
}

func TestFileSystemStoreCleanup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, err := store.Store(ctx, &StoreRequest{Extension: "png", Data: []byte("old")})
	require.NoError(t, err)

	// Nothing is older than an hour yet.
	deleted, err := store.CleanupOlderThan(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// Everything is older than a zero-age cutoff.
	time.Sleep(10 * time.Millisecond)
	deleted, err = store.CleanupOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = store.Get(ctx, result.Path)
	assert.ErrorIs(t, err, shipping.ErrLabelUnavailable)
}

func TestFileSystemStoreGetURL(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, "http://erp.local/api/v1/labels/2026/08/x.png", store.GetURL("2026/08/x.png"))
}

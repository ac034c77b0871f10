package artifact

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/table-extractor/internal/config"
)

func TestLocalStore_GetBeforePut(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "result.xlsx"))
	require.NoError(t, err)

	_, err = store.Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_PutReplaces(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "nested", "result.xlsx"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, []byte("first")))
	require.NoError(t, store.Put(ctx, []byte("second")))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got.Data)
	assert.False(t, got.ModTime.IsZero())

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalStore_ConcurrentPutNeverTorn(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "result.xlsx"))
	require.NoError(t, err)
	ctx := context.Background()

	a := make([]byte, 64<<10)
	b := make([]byte, 64<<10)
	for i := range b {
		b[i] = 1
	}
	require.NoError(t, store.Put(ctx, a))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := a
			if i%2 == 1 {
				data = b
			}
			assert.NoError(t, store.Put(ctx, data))
		}(i)
	}
	for i := 0; i < 20; i++ {
		got, err := store.Get(ctx)
		require.NoError(t, err)
		assert.True(t, assert.ObjectsAreEqual(a, got.Data) || assert.ObjectsAreEqual(b, got.Data))
	}
	wg.Wait()
}

func TestLocalStore_RequiresPath(t *testing.T) {
	_, err := NewLocalStore("")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.ArtifactConfig{
		Driver: config.ArtifactDriverLocal,
		Local:  config.LocalConfig{Path: filepath.Join(t.TempDir(), "result.xlsx")},
	})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	require.NoError(t, store.Close())

	gcs, err := New(ctx, config.ArtifactConfig{
		Driver: config.ArtifactDriverGCS,
		GCS:    config.GCSConfig{Bucket: "artifacts", Endpoint: "http://localhost:4443/storage/v1/"},
	})
	require.NoError(t, err)
	assert.IsType(t, &GCSStore{}, gcs)
	require.NoError(t, gcs.Close())

	_, err = New(ctx, config.ArtifactConfig{Driver: config.ArtifactDriverGCS})
	assert.Error(t, err)

	_, err = New(ctx, config.ArtifactConfig{Driver: "s3"})
	assert.Error(t, err)
}

package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/bencher/internal/sweep"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSQLiteStoreBasics(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "fn/a", []byte("one")))
	require.NoError(t, store.Put(ctx, "fn/a", []byte("two")))
	require.NoError(t, store.Put(ctx, "fn/b", []byte("three")))
	require.NoError(t, store.Put(ctx, "other/a", []byte("four")))

	v, ok, err := store.Get(ctx, "fn/a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", string(v))

	n, err := store.Count(ctx, "fn/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.DeletePrefix(ctx, "fn/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	c := New(store, nil)
	f := fp(FunctionID("b", "v1", ""), 5, 1)
	c.Put(ctx, f, sweep.Results{"out": 10.0})
	require.NoError(t, c.Close())

	store, err = OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()
	e, ok := New(store, nil).Get(ctx, f)
	require.True(t, ok)
	assert.Equal(t, 10.0, e.Results["out"])

	version, dirty, err := store.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)
}

func TestSQLiteStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	c := New(store, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				// Workers overlap on half their keys.
				c.Put(ctx, fp("fn", float64(i), w%2+1), sweep.Results{"w": w})
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, c.Stats().WriteErrors)
	n, err := c.Count(ctx, "fn")
	require.NoError(t, err)
	assert.Equal(t, 40, n)
}

func TestSQLiteStoreClosed(t *testing.T) {
	store, _ := openTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, _, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Put(context.Background(), "k", nil), ErrClosed)

	// A closed store degrades the cache to misses.
	_, ok := New(store, nil).Get(context.Background(), fp("fn", 1, 1))
	assert.False(t, ok)
}

func TestSQLiteMemory(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(context.Background(), fmt.Sprintf("k%d", i), []byte("v")))
	}
	n, err := store.Count(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

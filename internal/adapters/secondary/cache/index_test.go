package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

func TestIndexes(t *testing.T) {
	ctx := context.Background()

	sqliteIdx, err := OpenSQLiteIndex(ctx, filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteIdx.Close() })

	for name, idx := range map[string]ports.CacheIndex{
		"sqlite": sqliteIdx,
		"memory": NewMemoryIndex(),
	} {
		t.Run(name, func(t *testing.T) {
			fetched := time.UnixMilli(time.Now().UnixMilli())
			entry := entities.CacheEntry{
				Key: "abc", Source: "https://example.com/a.png", Path: "/tmp/abc.png",
				ContentType: "image/png", Size: 42, Width: 4, Height: 2, FetchedAt: fetched,
			}

			require.NoError(t, idx.Put(ctx, entry))
			got, ok, err := idx.Get(ctx, "abc")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, entry.Source, got.Source)
			assert.Equal(t, int64(42), got.Size)
			assert.True(t, fetched.Equal(got.FetchedAt))

			entry.Size = 99
			require.NoError(t, idx.Put(ctx, entry))
			list, err := idx.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, int64(99), list[0].Size)

			require.NoError(t, idx.Delete(ctx, "abc"))
			_, ok, err = idx.Get(ctx, "abc")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

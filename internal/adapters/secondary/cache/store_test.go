package cache

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingFetcher struct {
	calls   atomic.Int32
	gate    chan struct{}
	payload []byte
	err     error
}

func (f *countingFetcher) Fetch(ctx context.Context, _ string) (ports.FetchedAsset, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ports.FetchedAsset{}, ctx.Err()
		}
	}
	if f.err != nil {
		return ports.FetchedAsset{}, f.err
	}
	return ports.FetchedAsset{Data: f.payload, ContentType: "image/png"}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestStore(t *testing.T, fetcher ports.AssetFetcher) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := NewStore(context.Background(), Options{
		Dir:       t.TempDir(),
		TTL:       24 * time.Hour,
		MaxWidth:  1920,
		MaxHeight: 1080,
		Clock:     clock,
	}, NewMemoryIndex(), fetcher)
	require.NoError(t, err)
	return s, clock
}

func TestStore_GetOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		fetcher := &countingFetcher{payload: pngBytes(t, 10, 10)}
		s, _ := newTestStore(t, fetcher)

		first, err := s.GetOrFetch(ctx, "https://Example.com/logo.png")
		require.NoError(t, err)
		assert.False(t, first.FromCache)
		assert.FileExists(t, first.Path())

		second, err := s.GetOrFetch(ctx, "https://example.com/logo.png")
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Equal(t, first.Path(), second.Path())
		assert.Equal(t, int32(1), fetcher.calls.Load())
	})

	t.Run("stale entry is refetched", func(t *testing.T) {
		fetcher := &countingFetcher{payload: pngBytes(t, 10, 10)}
		s, clock := newTestStore(t, fetcher)

		_, err := s.GetOrFetch(ctx, "https://example.com/a.png")
		require.NoError(t, err)

		clock.Advance(25 * time.Hour)
		asset, err := s.GetOrFetch(ctx, "https://example.com/a.png")
		require.NoError(t, err)
		assert.False(t, asset.FromCache)
		assert.Equal(t, int32(2), fetcher.calls.Load())
	})

	t.Run("fetch failure wraps ErrCacheFetch", func(t *testing.T) {
		s, _ := newTestStore(t, &countingFetcher{err: errors.New("404")})

		_, err := s.GetOrFetch(ctx, "https://example.com/missing.png")
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrCacheFetch)
	})

	t.Run("undecodable payload fails", func(t *testing.T) {
		s, _ := newTestStore(t, &countingFetcher{payload: []byte("not an image")})

		_, err := s.GetOrFetch(ctx, "https://example.com/broken.png")
		assert.ErrorIs(t, err, entities.ErrCacheFetch)
	})
}

func TestStore_SingleFlight(t *testing.T) {
	fetcher := &countingFetcher{payload: pngBytes(t, 8, 8), gate: make(chan struct{})}
	s, _ := newTestStore(t, fetcher)

	const callers = 16
	var wg sync.WaitGroup
	paths := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			asset, err := s.GetOrFetch(context.Background(), "https://example.com/shared.png")
			paths[i], errs[i] = asset.Path(), err
		}(i)
	}

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, paths[0], paths[i])
	}
}

func TestStore_SweepRespectsLeases(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t, &countingFetcher{payload: pngBytes(t, 4, 4)})

	lease := s.NewLease("run-1")
	leased, err := lease.GetOrFetch(ctx, "https://example.com/leased.png")
	require.NoError(t, err)
	free, err := s.GetOrFetch(ctx, "https://example.com/free.png")
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)

	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.FileExists(t, leased.Path())
	assert.NoFileExists(t, free.Path())
	assert.Equal(t, 1, s.Stats().Leased)

	lease.Release()
	lease.Release()

	removed, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, leased.Path())

	stats := s.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(2), stats.Evictions)
}

// gatedIndex pauses Delete until release is closed
type gatedIndex struct {
	*MemoryIndex
	entered chan struct{}
	release chan struct{}
}

func (g *gatedIndex) Delete(ctx context.Context, key string) error {
	close(g.entered)
	<-g.release
	return g.MemoryIndex.Delete(ctx, key)
}

func TestStore_SweepDuringLeasedRefetch(t *testing.T) {
	ctx := context.Background()
	const source = "https://example.com/busy.png"
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	index := &gatedIndex{MemoryIndex: NewMemoryIndex(), entered: make(chan struct{}), release: make(chan struct{})}
	fetcher := &countingFetcher{payload: pngBytes(t, 4, 4)}
	s, err := NewStore(ctx, Options{Dir: t.TempDir(), TTL: time.Hour, Clock: clock}, index, fetcher)
	require.NoError(t, err)

	first, err := s.GetOrFetch(ctx, source)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	swept := make(chan int, 1)
	go func() {
		n, _ := s.Sweep(ctx)
		swept <- n
	}()
	<-index.entered

	lease := s.NewLease("run-1")
	defer lease.Release()
	type result struct {
		asset entities.CachedAsset
		err   error
	}
	fetched := make(chan result, 1)
	go func() {
		asset, err := lease.GetOrFetch(ctx, source)
		fetched <- result{asset, err}
	}()
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 2 }, time.Second, time.Millisecond)

	close(index.release)
	assert.Equal(t, 1, <-swept)
	res := <-fetched
	require.NoError(t, res.err)

	assert.Equal(t, first.Path(), res.asset.Path())
	assert.FileExists(t, res.asset.Path())
	entry, ok := s.Peek(source)
	require.True(t, ok)
	assert.Equal(t, res.asset.Entry.FetchedAt, entry.FetchedAt)
	_, indexed, err := index.Get(ctx, entry.Key)
	require.NoError(t, err)
	assert.True(t, indexed)
}

func TestStore_PeekAndInvalidate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, &countingFetcher{payload: pngBytes(t, 4, 4)})

	_, ok := s.Peek("https://example.com/p.png")
	assert.False(t, ok)

	asset, err := s.GetOrFetch(ctx, "https://example.com/p.png")
	require.NoError(t, err)

	entry, ok := s.Peek("https://example.com/p.png")
	require.True(t, ok)
	assert.Equal(t, asset.Entry.Key, entry.Key)

	require.NoError(t, s.Invalidate(ctx, "https://example.com/p.png"))
	_, ok = s.Peek("https://example.com/p.png")
	assert.False(t, ok)
	_, statErr := os.Stat(asset.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_ReloadsFromIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	index := NewMemoryIndex()
	clock := &fakeClock{now: time.Now()}
	opts := Options{Dir: dir, Clock: clock}

	s1, err := NewStore(ctx, opts, index, &countingFetcher{payload: pngBytes(t, 4, 4)})
	require.NoError(t, err)
	_, err = s1.GetOrFetch(ctx, "https://example.com/r.png")
	require.NoError(t, err)

	fetcher := &countingFetcher{payload: pngBytes(t, 4, 4)}
	s2, err := NewStore(ctx, opts, index, fetcher)
	require.NoError(t, err)
	asset, err := s2.GetOrFetch(ctx, "https://example.com/r.png")
	require.NoError(t, err)
	assert.True(t, asset.FromCache)
	assert.Zero(t, fetcher.calls.Load())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("HTTPS://EXAMPLE.com/a.png"), Key("https://example.com/a.png"))
	assert.Equal(t, Key(" https://example.com/a.png "), Key("https://example.com/a.png"))
	assert.NotEqual(t, Key("https://example.com/A.png"), Key("https://example.com/a.png"))
	assert.Len(t, Key("x"), 64)
}

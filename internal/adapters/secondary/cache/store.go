package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Options configures a Store
type Options struct {
	Dir          string
	TTL          time.Duration
	FetchTimeout time.Duration
	MaxWidth     int
	MaxHeight    int
	Clock        ports.TimeProvider
	Logger       *slog.Logger
}

// Store is a disk-backed asset cache. Entries are files under Dir named by
// the sha256 of their canonical source; metadata lives in a CacheIndex and
// is mirrored in memory so Peek never touches the index.
type Store struct {
	opts    Options
	index   ports.CacheIndex
	fetcher ports.AssetFetcher
	logger  *slog.Logger

	group singleflight.Group
	// keyLocks serialize writing and removing the file of one key
	keyLocks [256]sync.Mutex

	mu      sync.RWMutex
	entries map[string]entities.CacheEntry
	leases  map[string]map[string]struct{} // runID -> keys

	hits      atomic.Int64
	misses    atomic.Int64
	fetches   atomic.Int64
	evictions atomic.Int64
}

// NewStore creates a store over dir, loading existing entries from index
func NewStore(ctx context.Context, opts Options, index ports.CacheIndex, fetcher ports.AssetFetcher) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = ports.NewRealTimeProvider()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", opts.Dir, err)
	}

	existing, err := index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cache index: %w", err)
	}

	s := &Store{
		opts:    opts,
		index:   index,
		fetcher: fetcher,
		logger:  opts.Logger.With(slog.String("component", "asset_cache")),
		entries: make(map[string]entities.CacheEntry, len(existing)),
		leases:  make(map[string]map[string]struct{}),
	}
	for _, e := range existing {
		s.entries[e.Key] = e
	}
	return s, nil
}

// GetOrFetch returns the cached asset for source, fetching it when missing or stale
func (s *Store) GetOrFetch(ctx context.Context, source string) (entities.CachedAsset, error) {
	return s.get(ctx, source, "")
}

func (s *Store) get(ctx context.Context, source, runID string) (entities.CachedAsset, error) {
	key := Key(source)
	if runID != "" {
		s.bind(runID, key)
	}

	if e, ok := s.fresh(key); ok {
		s.hits.Add(1)
		return entities.CachedAsset{Entry: e, FromCache: true}, nil
	}
	s.misses.Add(1)

	ch := s.group.DoChan(key, func() (interface{}, error) {
		if e, ok := s.fresh(key); ok {
			return e, nil
		}
		return s.fetch(ctx, key, Canonical(source))
	})

	select {
	case <-ctx.Done():
		return entities.CachedAsset{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return entities.CachedAsset{}, res.Err
		}
		return entities.CachedAsset{Entry: res.Val.(entities.CacheEntry)}, nil
	}
}

// fetch runs inside the single flight for key. It is detached from the
// caller's cancellation since other callers may be waiting on it.
func (s *Store) fetch(ctx context.Context, key, canonical string) (entities.CacheEntry, error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FetchTimeout)
	defer cancel()

	start := s.opts.Clock.Now()
	raw, err := s.fetcher.Fetch(fctx, canonical)
	if err != nil {
		return entities.CacheEntry{}, fmt.Errorf("%w: %s: %v", entities.ErrCacheFetch, canonical, err)
	}
	s.fetches.Add(1)

	norm, err := Normalize(raw.Data, raw.ContentType, s.opts.MaxWidth, s.opts.MaxHeight)
	if err != nil {
		return entities.CacheEntry{}, fmt.Errorf("%w: %s: %v", entities.ErrCacheFetch, canonical, err)
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(s.opts.Dir, key[:2], key+norm.Ext)
	if err := writeAtomic(path, norm.Data); err != nil {
		return entities.CacheEntry{}, fmt.Errorf("%w: writing %s: %v", entities.ErrCacheFetch, path, err)
	}

	entry := entities.CacheEntry{
		Key:         key,
		Source:      canonical,
		Path:        path,
		ContentType: norm.ContentType,
		Size:        int64(len(norm.Data)),
		Width:       norm.Width,
		Height:      norm.Height,
		FetchedAt:   s.opts.Clock.Now(),
	}

	s.mu.Lock()
	old, hadOld := s.entries[key]
	s.entries[key] = entry
	s.mu.Unlock()
	if hadOld && old.Path != path {
		_ = os.Remove(old.Path)
	}

	if err := s.index.Put(fctx, entry); err != nil {
		s.logger.Warn("cache index update failed", slog.String("key", key), slog.Any("error", err))
	}

	s.logger.Debug("asset fetched",
		slog.String("source", canonical),
		slog.Int64("bytes", entry.Size),
		slog.Duration("duration", s.opts.Clock.Since(start)))
	return entry, nil
}

// fresh returns the entry for key when it is younger than the TTL and its file exists
func (s *Store) fresh(key string) (entities.CacheEntry, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !e.Fresh(s.opts.Clock.Now(), s.opts.TTL) {
		return entities.CacheEntry{}, false
	}
	if _, err := os.Stat(e.Path); err != nil {
		return entities.CacheEntry{}, false
	}
	return e, true
}

// Peek returns the fresh entry for source without fetching
func (s *Store) Peek(source string) (entities.CacheEntry, bool) {
	return s.fresh(Key(source))
}

// Invalidate removes the entry and file for source
func (s *Store) Invalidate(ctx context.Context, source string) error {
	key := Key(source)
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	if err := s.index.Delete(ctx, key); err != nil {
		return fmt.Errorf("deleting index entry: %w", err)
	}
	if ok {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", e.Path, err)
		}
	}
	return nil
}

// Sweep removes stale entries that no in-progress compile holds a lease on.
// Each candidate is re-checked under its key lock, so an entry refetched or
// leased after the scan began is left alone.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	now := s.opts.Clock.Now()

	s.mu.RLock()
	var stale []entities.CacheEntry
	for _, e := range s.entries {
		if !e.Fresh(now, s.opts.TTL) {
			stale = append(stale, e)
		}
	}
	s.mu.RUnlock()

	var (
		errs    []error
		removed int
	)
	for _, e := range stale {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := s.evict(ctx, e)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("cache swept", slog.Int("removed", removed), slog.Int("candidates", len(stale)))
	}
	return removed, errors.Join(errs...)
}

// evict drops e when it is still the current, unleased entry for its key
func (s *Store) evict(ctx context.Context, e entities.CacheEntry) (bool, error) {
	lock := s.keyLock(e.Key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	current, ok := s.entries[e.Key]
	_, held := s.leasedKeysLocked()[e.Key]
	if !ok || held || current.Path != e.Path || !current.FetchedAt.Equal(e.FetchedAt) {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.entries, e.Key)
	s.mu.Unlock()

	s.evictions.Add(1)
	var errs []error
	if err := s.index.Delete(ctx, e.Key); err != nil {
		errs = append(errs, err)
	}
	if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	return true, errors.Join(errs...)
}

// Stats returns cache statistics
func (s *Store) Stats() entities.CacheStats {
	s.mu.RLock()
	stats := entities.CacheStats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Fetches:   s.fetches.Load(),
		Evictions: s.evictions.Load(),
		Entries:   len(s.entries),
		Leased:    len(s.leasedKeysLocked()),
	}
	for _, e := range s.entries {
		stats.TotalBytes += e.Size
	}
	s.mu.RUnlock()

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// Close closes the underlying index
func (s *Store) Close() error {
	return s.index.Close()
}

// NewLease returns a handle whose lookups are pinned until Release
func (s *Store) NewLease(runID string) ports.AssetLease {
	s.mu.Lock()
	if _, ok := s.leases[runID]; !ok {
		s.leases[runID] = make(map[string]struct{})
	}
	s.mu.Unlock()
	return &lease{store: s, runID: runID}
}

func (s *Store) bind(runID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.leases[runID]
	if !ok {
		return
	}
	keys[key] = struct{}{}
}

func (s *Store) release(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leases, runID)
}

// keyLock returns the lock striped to key
func (s *Store) keyLock(key string) *sync.Mutex {
	var h uint8
	for i := 0; i < len(key); i++ {
		h = h*31 + key[i]
	}
	return &s.keyLocks[h]
}

// leasedKeysLocked requires s.mu
func (s *Store) leasedKeysLocked() map[string]struct{} {
	out := make(map[string]struct{})
	for _, keys := range s.leases {
		for k := range keys {
			out[k] = struct{}{}
		}
	}
	return out
}

type lease struct {
	store *Store
	runID string
	once  sync.Once
}

func (l *lease) GetOrFetch(ctx context.Context, source string) (entities.CachedAsset, error) {
	return l.store.get(ctx, source, l.runID)
}

func (l *lease) Release() {
	l.once.Do(func() { l.store.release(l.runID) })
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ ports.AssetCache = (*Store)(nil)

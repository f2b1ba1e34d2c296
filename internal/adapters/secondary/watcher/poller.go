package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// PollingWatcher watches deck inputs by polling. Size and modification time
// are checked every interval; a checksum confirms the content really changed.
type PollingWatcher struct {
	interval time.Duration
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	files   map[string]fileState
	events  chan ports.FileChangeEvent
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// fileState is the last observed state of a watched file
type fileState struct {
	exists   bool
	size     int64
	modTime  time.Time
	checksum string
}

// NewPollingWatcher creates a new polling-based file watcher
func NewPollingWatcher(interval, debounce time.Duration, logger *slog.Logger) *PollingWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &PollingWatcher{
		interval: interval,
		debounce: debounce,
		logger:   logger.With(slog.String("component", "watcher")),
		files:    make(map[string]fileState),
		events:   make(chan ports.FileChangeEvent, 10),
		stopCh:   make(chan struct{}),
	}
}

// Watch starts polling paths. Every path must exist when watching starts.
func (w *PollingWatcher) Watch(ctx context.Context, paths ...string) (<-chan ports.FileChangeEvent, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to watch")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil, errors.New("watcher already started")
	}

	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		state, err := scan(a)
		if err != nil {
			return nil, fmt.Errorf("initial scan: %w", err)
		}
		if !state.exists {
			return nil, fmt.Errorf("initial scan: %s does not exist", p)
		}
		w.files[a] = state
		abs = append(abs, a)
	}
	w.started = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(w.events)
		w.pollLoop(ctx, abs)
	}()

	return w.events, nil
}

// Stop stops the watcher and waits for the poll loop to exit
func (w *PollingWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

// pollLoop checks every path on each tick. Changes within the debounce
// window of the last event are folded into the next one.
func (w *PollingWatcher) pollLoop(ctx context.Context, paths []string) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last time.Time
	pending := make(map[string]ports.ChangeType)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case now := <-ticker.C:
			for _, p := range paths {
				change, ok, err := w.check(p)
				if err != nil {
					w.logger.Warn("watch check failed", slog.String("path", p), slog.String("error", err.Error()))
					continue
				}
				if ok {
					pending[p] = change
				}
			}
			if len(pending) == 0 || now.Sub(last) < w.debounce {
				continue
			}

			for _, p := range paths {
				change, ok := pending[p]
				if !ok {
					continue
				}
				select {
				case w.events <- ports.FileChangeEvent{Path: p, Type: change, Timestamp: now}:
				case <-ctx.Done():
					return
				case <-w.stopCh:
					return
				}
				delete(pending, p)
			}
			last = now
		}
	}
}

// check compares path with its last observed state
func (w *PollingWatcher) check(path string) (ports.ChangeType, bool, error) {
	w.mu.Lock()
	old := w.files[path]
	w.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return 0, false, fmt.Errorf("stat file: %w", err)
		}
		if !old.exists {
			return 0, false, nil
		}
		w.store(path, fileState{})
		return ports.Deleted, true, nil
	}

	if old.exists && old.size == info.Size() && old.modTime.Equal(info.ModTime()) {
		return 0, false, nil
	}

	sum, err := checksum(path)
	if err != nil {
		return 0, false, fmt.Errorf("calculate checksum: %w", err)
	}
	w.store(path, fileState{exists: true, size: info.Size(), modTime: info.ModTime(), checksum: sum})

	switch {
	case !old.exists:
		return ports.Created, true, nil
	case old.checksum != sum:
		return ports.Modified, true, nil
	default:
		return 0, false, nil
	}
}

func (w *PollingWatcher) store(path string, state fileState) {
	w.mu.Lock()
	w.files[path] = state
	w.mu.Unlock()
}

// scan reads the current state of path; a missing file is not an error
func scan(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileState{}, nil
		}
		return fileState{}, fmt.Errorf("stat file: %w", err)
	}
	sum, err := checksum(path)
	if err != nil {
		return fileState{}, fmt.Errorf("calculate checksum: %w", err)
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime(), checksum: sum}, nil
}

// checksum returns the hex sha256 of a file's content
func checksum(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 - watched paths come from the deck command line
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

var _ ports.FileWatcher = (*PollingWatcher)(nil)

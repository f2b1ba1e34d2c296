package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func nextEvent(t *testing.T, events <-chan ports.FileChangeEvent) ports.FileChangeEvent {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "events closed")
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("no event received")
		return ports.FileChangeEvent{}
	}
}

func TestPollingWatcher(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		w := NewPollingWatcher(0, 0, nil)
		assert.Equal(t, 500*time.Millisecond, w.interval)
		assert.NotNil(t, w.logger)
	})

	t.Run("reports modification", func(t *testing.T) {
		deck := filepath.Join(t.TempDir(), "deck.yaml")
		writeFile(t, deck, "title: One")

		w := NewPollingWatcher(20*time.Millisecond, 0, nil)
		defer func() { _ = w.Stop() }()
		events, err := w.Watch(context.Background(), deck)
		require.NoError(t, err)

		writeFile(t, deck, "title: Two slides")
		e := nextEvent(t, events)
		assert.Equal(t, deck, e.Path)
		assert.Equal(t, ports.Modified, e.Type)
	})

	t.Run("watches several files", func(t *testing.T) {
		dir := t.TempDir()
		deck := filepath.Join(dir, "deck.yaml")
		hints := filepath.Join(dir, "hints.json")
		writeFile(t, deck, "title: One")
		writeFile(t, hints, "{}")

		w := NewPollingWatcher(20*time.Millisecond, 0, nil)
		defer func() { _ = w.Stop() }()
		events, err := w.Watch(context.Background(), deck, hints)
		require.NoError(t, err)

		writeFile(t, hints, `{"colors": {"primary": "#005596"}}`)
		assert.Equal(t, hints, nextEvent(t, events).Path)
	})

	t.Run("reports deletion then recreation", func(t *testing.T) {
		deck := filepath.Join(t.TempDir(), "deck.yaml")
		writeFile(t, deck, "title: One")

		w := NewPollingWatcher(20*time.Millisecond, 0, nil)
		defer func() { _ = w.Stop() }()
		events, err := w.Watch(context.Background(), deck)
		require.NoError(t, err)

		require.NoError(t, os.Remove(deck))
		assert.Equal(t, ports.Deleted, nextEvent(t, events).Type)

		writeFile(t, deck, "title: Back")
		assert.Equal(t, ports.Created, nextEvent(t, events).Type)
	})

	t.Run("touch without content change is ignored", func(t *testing.T) {
		deck := filepath.Join(t.TempDir(), "deck.yaml")
		writeFile(t, deck, "title: One")

		w := NewPollingWatcher(20*time.Millisecond, 0, nil)
		defer func() { _ = w.Stop() }()
		events, err := w.Watch(context.Background(), deck)
		require.NoError(t, err)

		later := time.Now().Add(time.Minute)
		require.NoError(t, os.Chtimes(deck, later, later))

		select {
		case e := <-events:
			t.Fatalf("unexpected event %v", e)
		case <-time.After(150 * time.Millisecond):
		}
	})

	t.Run("debounce folds rapid changes", func(t *testing.T) {
		deck := filepath.Join(t.TempDir(), "deck.yaml")
		writeFile(t, deck, "v0")

		w := NewPollingWatcher(20*time.Millisecond, 600*time.Millisecond, nil)
		defer func() { _ = w.Stop() }()
		events, err := w.Watch(context.Background(), deck)
		require.NoError(t, err)

		writeFile(t, deck, "v01")
		nextEvent(t, events)

		for _, content := range []string{"v012", "v0123", "v01234"} {
			writeFile(t, deck, content)
			time.Sleep(30 * time.Millisecond)
		}

		count := 0
		timeout := time.After(300 * time.Millisecond)
	loop:
		for {
			select {
			case <-events:
				count++
			case <-timeout:
				break loop
			}
		}
		assert.Zero(t, count)
		assert.Equal(t, ports.Modified, nextEvent(t, events).Type)
	})

	t.Run("missing file", func(t *testing.T) {
		w := NewPollingWatcher(20*time.Millisecond, 0, nil)
		_, err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("no paths", func(t *testing.T) {
		_, err := NewPollingWatcher(0, 0, nil).Watch(context.Background())
		require.Error(t, err)
	})

	t.Run("stop closes events", func(t *testing.T) {
		deck := filepath.Join(t.TempDir(), "deck.yaml")
		writeFile(t, deck, "title: One")

		w := NewPollingWatcher(20*time.Millisecond, 0, nil)
		events, err := w.Watch(context.Background(), deck)
		require.NoError(t, err)

		require.NoError(t, w.Stop())
		require.NoError(t, w.Stop())
		_, ok := <-events
		assert.False(t, ok)
	})

	t.Run("context cancel closes events", func(t *testing.T) {
		deck := filepath.Join(t.TempDir(), "deck.yaml")
		writeFile(t, deck, "title: One")

		ctx, cancel := context.WithCancel(context.Background())
		w := NewPollingWatcher(20*time.Millisecond, 0, nil)
		events, err := w.Watch(ctx, deck)
		require.NoError(t, err)

		cancel()
		select {
		case _, ok := <-events:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("events not closed")
		}
	})
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "modified", ports.Modified.String())
	assert.Equal(t, "created", ports.Created.String())
	assert.Equal(t, "deleted", ports.Deleted.String())
	assert.Equal(t, "unknown", ports.ChangeType(9).String())
}

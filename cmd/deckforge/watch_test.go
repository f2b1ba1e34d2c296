package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// fakeWatcher replays queued events and then closes the channel
type fakeWatcher struct {
	events  chan ports.FileChangeEvent
	paths   []string
	stopped bool
}

func newFakeWatcher(events ...ports.FileChangeEvent) *fakeWatcher {
	ch := make(chan ports.FileChangeEvent, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &fakeWatcher{events: ch}
}

func (f *fakeWatcher) Watch(_ context.Context, paths ...string) (<-chan ports.FileChangeEvent, error) {
	f.paths = paths
	return f.events, nil
}

func (f *fakeWatcher) Stop() error {
	f.stopped = true
	return nil
}

type fakeOpener struct {
	opened []string
	err    error
}

func (f *fakeOpener) Open(path string) error {
	f.opened = append(f.opened, path)
	return f.err
}

func (f *fakeOpener) Detect() (string, error) { return "fake", nil }

// testApp wires the application for a workspace deck and returns a command
// whose output is captured
func testApp(t *testing.T, deckPath, configPath string, args ...string) (*cobra.Command, *app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cmd := newTestCommand(compileCmd, addCompileFlags)
	require.NoError(t, cmd.ParseFlags(append([]string{"--config", configPath}, args...)))
	cmd.SetContext(context.Background())
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cfg, err := loadConfig(cmd, filepath.Dir(deckPath))
	require.NoError(t, err)
	a, err := newApp(cmd.Context(), cfg, filepath.Dir(deckPath), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return cmd, a, out, errOut
}

func TestWatchDeck(t *testing.T) {
	t.Run("recompiles on every change", func(t *testing.T) {
		deckPath, configPath, outDir := workspace(t, cliDeck)
		cmd, a, out, errOut := testApp(t, deckPath, configPath)

		w := newFakeWatcher(
			ports.FileChangeEvent{Path: deckPath, Type: ports.Modified},
			ports.FileChangeEvent{Path: deckPath, Type: ports.Modified},
		)
		require.NoError(t, watchDeck(cmd, a, w, deckPath))

		assert.Equal(t, []string{deckPath}, w.paths)
		assert.True(t, w.stopped)
		assert.Equal(t, 3, strings.Count(out.String(), "Rendered slides"))
		assert.Contains(t, errOut.String(), "recompiling")
		assert.FileExists(t, filepath.Join(outDir, "launch.pdf"))
	})

	t.Run("keeps watching after a failed compile", func(t *testing.T) {
		deckPath, configPath, _ := workspace(t, "title: Broken\ntheme:\n  template: nowhere\nslides:\n  - title: One\n")
		cmd, a, _, errOut := testApp(t, deckPath, configPath)

		w := newFakeWatcher(ports.FileChangeEvent{Path: deckPath, Type: ports.Modified})
		require.NoError(t, watchDeck(cmd, a, w, deckPath))
		assert.Equal(t, 2, strings.Count(errOut.String(), "✗"))
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		deckPath, configPath, _ := workspace(t, cliDeck)
		cmd, a, _, _ := testApp(t, deckPath, configPath)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cmd.SetContext(ctx)

		w := &fakeWatcher{events: make(chan ports.FileChangeEvent)}
		assert.NoError(t, watchDeck(cmd, a, w, deckPath))
	})
}

func TestCompileDeck_Open(t *testing.T) {
	t.Run("opens the artifact", func(t *testing.T) {
		deckPath, configPath, outDir := workspace(t, cliDeck)
		cmd, a, _, _ := testApp(t, deckPath, configPath, "--open")
		opener := &fakeOpener{}
		a.opener = opener

		require.NoError(t, compileDeck(cmd, a, deckPath))
		assert.Equal(t, []string{filepath.Join(outDir, "launch.pdf")}, opener.opened)
	})

	t.Run("opener failure does not fail the compile", func(t *testing.T) {
		deckPath, configPath, _ := workspace(t, cliDeck)
		cmd, a, _, _ := testApp(t, deckPath, configPath, "--open")
		a.opener = &fakeOpener{err: errors.New("no viewer")}

		assert.NoError(t, compileDeck(cmd, a, deckPath))
	})

	t.Run("not opened without the flag", func(t *testing.T) {
		deckPath, configPath, _ := workspace(t, cliDeck)
		cmd, a, _, _ := testApp(t, deckPath, configPath)
		opener := &fakeOpener{}
		a.opener = opener

		require.NoError(t, compileDeck(cmd, a, deckPath))
		assert.Empty(t, opener.opened)
	})
}

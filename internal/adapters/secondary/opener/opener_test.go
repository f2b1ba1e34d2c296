package opener

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type launch struct {
	name string
	args []string
}

func fakeOpener(available map[string]bool, launches *[]launch) *Opener {
	return &Opener{
		viewers: platformViewers("linux"),
		lookPath: func(cmd string) (string, error) {
			if available[cmd] {
				return "/usr/bin/" + cmd, nil
			}
			return "", errors.New("not found")
		},
		start: func(name string, args ...string) error {
			*launches = append(*launches, launch{name, args})
			return nil
		},
	}
}

func artifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))
	return path
}

func TestOpener_Open(t *testing.T) {
	t.Run("first available viewer", func(t *testing.T) {
		var launches []launch
		o := fakeOpener(map[string]bool{"xdg-open": true, "gio": true}, &launches)

		path := artifact(t)
		require.NoError(t, o.Open(path))
		require.Len(t, launches, 1)
		assert.Equal(t, "xdg-open", launches[0].name)
		assert.Equal(t, []string{path}, launches[0].args)
	})

	t.Run("falls through to next viewer", func(t *testing.T) {
		var launches []launch
		o := fakeOpener(map[string]bool{"gio": true}, &launches)

		path := artifact(t)
		require.NoError(t, o.Open(path))
		require.Len(t, launches, 1)
		assert.Equal(t, []string{"open", path}, launches[0].args)
	})

	t.Run("no viewer", func(t *testing.T) {
		var launches []launch
		o := fakeOpener(nil, &launches)

		err := o.Open(artifact(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "viewer selection")
		assert.Empty(t, launches)
	})

	t.Run("missing artifact", func(t *testing.T) {
		var launches []launch
		o := fakeOpener(map[string]bool{"xdg-open": true}, &launches)

		err := o.Open(filepath.Join(t.TempDir(), "missing.pdf"))
		require.Error(t, err)
		assert.Empty(t, launches)
	})

	t.Run("start failure", func(t *testing.T) {
		o := fakeOpener(map[string]bool{"xdg-open": true}, new([]launch))
		o.start = func(string, ...string) error { return errors.New("exec format error") }

		err := o.Open(artifact(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "launching xdg-open")
	})
}

func TestOpener_Detect(t *testing.T) {
	o := fakeOpener(map[string]bool{"gio": true}, new([]launch))
	name, err := o.Detect()
	require.NoError(t, err)
	assert.Equal(t, "gio", name)

	o.viewers = nil
	_, err = o.Detect()
	require.Error(t, err)
}

func TestPlatformViewers(t *testing.T) {
	tests := []struct {
		goos  string
		first string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "cmd"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			viewers := platformViewers(tt.goos)
			require.NotEmpty(t, viewers)
			assert.Equal(t, tt.first, viewers[0].Command)
		})
	}
	assert.Empty(t, platformViewers("plan9"))
}

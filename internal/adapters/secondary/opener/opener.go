package opener

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Viewer is one way of opening a file on the current platform
type Viewer struct {
	Name    string
	Command string
	Args    func(path string) []string
}

// Opener implements ports.ArtifactOpener with the platform's file opener
type Opener struct {
	viewers  []Viewer
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// NewOpener creates an opener for the current platform
func NewOpener() *Opener {
	return &Opener{
		viewers:  platformViewers(runtime.GOOS),
		lookPath: exec.LookPath,
		start:    startDetached,
	}
}

// Open opens path with the first available viewer
func (o *Opener) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving artifact path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}

	viewer, err := o.selectViewer()
	if err != nil {
		return fmt.Errorf("viewer selection: %w", err)
	}
	if err := o.start(viewer.Command, viewer.Args(abs)...); err != nil {
		return fmt.Errorf("launching %s: %w", viewer.Name, err)
	}
	return nil
}

// Detect returns the name of the viewer Open would use
func (o *Opener) Detect() (string, error) {
	viewer, err := o.selectViewer()
	if err != nil {
		return "", err
	}
	return viewer.Name, nil
}

// selectViewer returns the first viewer whose command is on PATH
func (o *Opener) selectViewer() (*Viewer, error) {
	if len(o.viewers) == 0 {
		return nil, errors.New("no viewers known for this platform")
	}
	for _, v := range o.viewers {
		if _, err := o.lookPath(v.Command); err == nil {
			return &v, nil
		}
	}
	return nil, errors.New("no supported viewer found on this system")
}

// startDetached starts a process and reaps it in the background
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...) // #nosec G204 - command comes from the fixed viewer table
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func platformViewers(goos string) []Viewer {
	single := func(path string) []string { return []string{path} }
	switch goos {
	case "darwin":
		return []Viewer{{Name: "open", Command: "open", Args: single}}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []Viewer{
			{Name: "xdg-open", Command: "xdg-open", Args: single},
			{Name: "gio", Command: "gio", Args: func(path string) []string { return []string{"open", path} }},
		}
	case "windows":
		return []Viewer{{
			Name:    "start",
			Command: "cmd",
			Args:    func(path string) []string { return []string{"/c", "start", "", path} },
		}}
	default:
		return nil
	}
}

var _ ports.ArtifactOpener = (*Opener)(nil)

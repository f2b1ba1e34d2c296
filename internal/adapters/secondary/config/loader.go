package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// LocalConfigName is the per-project file looked up next to a deck
const LocalConfigName = "deckforge.toml"

const defaultsHeader = "# deckforge configuration\n# Values here are overridden by " + LocalConfigName + " next to a deck and by flags.\n\n"

// TOMLLoader reads the per-user and per-project TOML files. Keys that match
// no setting are rejected so a typo never silently falls back to a default.
type TOMLLoader struct {
	globalPath string
	localName  string
}

// NewTOMLLoader creates a loader for ~/.config/deckforge/config.toml
func NewTOMLLoader() *TOMLLoader {
	home, _ := os.UserHomeDir()
	return NewTOMLLoaderAt(filepath.Join(home, ".config", "deckforge", "config.toml"))
}

// NewTOMLLoaderAt creates a loader whose per-user file is globalPath
func NewTOMLLoaderAt(globalPath string) *TOMLLoader {
	return &TOMLLoader{globalPath: globalPath, localName: LocalConfigName}
}

func (l *TOMLLoader) LoadGlobal(ctx context.Context) (*entities.Config, error) {
	if _, err := os.Stat(l.globalPath); errors.Is(err, fs.ErrNotExist) {
		if err := l.CreateDefaults(ctx, l.globalPath); err != nil {
			return nil, fmt.Errorf("creating defaults: %w", err)
		}
	}
	return l.loadConfig(l.globalPath)
}

func (l *TOMLLoader) LoadLocal(_ context.Context, dir string) (*entities.Config, error) {
	path := l.GetLocalPath(dir)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return l.loadConfig(path)
}

// CreateDefaults writes the built-in settings to path. The file appears
// complete or not at all.
func (l *TOMLLoader) CreateDefaults(_ context.Context, path string) error {
	var buf bytes.Buffer
	buf.WriteString(defaultsHeader)
	enc := toml.NewEncoder(&buf)
	enc.Indent = "  "
	if err := enc.Encode(GetDefaultConfig()); err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("creating config file in %s: %w", dir, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("installing %s: %w", path, err)
	}
	return nil
}

func (l *TOMLLoader) GetGlobalPath() string {
	return l.globalPath
}

func (l *TOMLLoader) GetLocalPath(dir string) string {
	return filepath.Join(dir, l.localName)
}

func (l *TOMLLoader) loadConfig(path string) (*entities.Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - per-user or per-project config path
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg entities.Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML from %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("invalid config in %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return &cfg, nil
}

var _ ports.ConfigLoader = (*TOMLLoader)(nil)

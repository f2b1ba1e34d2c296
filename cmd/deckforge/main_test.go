package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

const cliDeck = `
title: Launch Plan
theme:
  colors:
    primary: "#005596"
output:
  filename: launch
slides:
  - layout: TITLE
    title: Launch Plan
    subtitle: Q3
  - title: Milestones
    content:
      - "Beta: June"
      - "GA: September"
`

// newTestCommand copies src into a fresh command with its own flags so
// tests never share flag state through the package-level commands
func newTestCommand(src *cobra.Command, adders ...func(*pflag.FlagSet)) *cobra.Command {
	cmd := &cobra.Command{Use: src.Use, Args: src.Args, RunE: src.RunE, SilenceUsage: true, SilenceErrors: true}
	addGlobalFlags(cmd.Flags())
	for _, add := range adders {
		add(cmd.Flags())
	}
	return cmd
}

// workspace creates a deck directory and a global config that keeps the
// cache and artifacts inside the test's temp dir
func workspace(t *testing.T, deck string) (deckPath, configPath, outDir string) {
	t.Helper()
	root := t.TempDir()
	outDir = filepath.Join(root, "out")
	deckPath = filepath.Join(root, "deck.yaml")
	configPath = filepath.Join(root, "config.toml")

	require.NoError(t, os.WriteFile(deckPath, []byte(deck), 0o600))
	config := `
[cache]
dir = "` + filepath.ToSlash(filepath.Join(root, "cache")) + `"
index = "memory"

[validator]
skip_probes = true

[output]
directory = "` + filepath.ToSlash(outDir) + `"

[logging]
level = "error"
`
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))
	return deckPath, configPath, outDir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateDeckArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"one deck", []string{"deck.yaml"}, false},
		{"no deck", nil, true},
		{"two decks", []string{"a.yaml", "b.yaml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDeckArgs(nil, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "accepts 1 arg(s)")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateServeConfig(t *testing.T) {
	valid := func() *entities.Config {
		return &entities.Config{
			Server: entities.ServerConfig{Host: "localhost", Port: 8085},
			Output: entities.OutputConfig{Directory: "out"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*entities.Config)
		wantErr string
	}{
		{"valid config", func(*entities.Config) {}, ""},
		{"zero port", func(c *entities.Config) { c.Server.Port = 0 }, "invalid port number"},
		{"port too high", func(c *entities.Config) { c.Server.Port = 70000 }, "invalid port number"},
		{"host with space", func(c *entities.Config) { c.Server.Host = "local host" }, "invalid host"},
		{"no output directory", func(c *entities.Config) { c.Output.Directory = "" }, "output directory is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateServeConfig(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCollectFlags(t *testing.T) {
	cmd := newTestCommand(compileCmd, addCompileFlags)
	require.NoError(t, cmd.ParseFlags([]string{"--format", "png", "--workers", "3", "--no-probe", "--log-level", "debug"}))

	flags := collectFlags(cmd)
	assert.Equal(t, map[string]interface{}{
		"format":    "png",
		"workers":   3,
		"no-probe":  true,
		"log-level": "debug",
	}, flags)
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     entities.LoggingConfig
		verbose bool
		enabled slog.Level
		muted   slog.Level
	}{
		{"default info", entities.LoggingConfig{}, false, slog.LevelInfo, slog.LevelDebug},
		{"warn", entities.LoggingConfig{Level: "warn"}, false, slog.LevelWarn, slog.LevelInfo},
		{"error", entities.LoggingConfig{Level: "error"}, false, slog.LevelError, slog.LevelWarn},
		{"verbose wins", entities.LoggingConfig{Level: "error"}, true, slog.LevelDebug, slog.LevelDebug - 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newLogger(new(bytes.Buffer), tt.cfg, tt.verbose)
			assert.True(t, logger.Enabled(ctx, tt.enabled))
			assert.False(t, logger.Enabled(ctx, tt.muted))
		})
	}

	t.Run("json format", func(t *testing.T) {
		buf := new(bytes.Buffer)
		newLogger(buf, entities.LoggingConfig{JSONFormat: true}, false).Info("hello")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})
}

func TestApplyThemeDefaults(t *testing.T) {
	t.Run("adds configured default", func(t *testing.T) {
		spec := &entities.DeckSpec{Theme: []entities.ThemeSource{entities.ExplicitTheme{}}}
		applyThemeDefaults(spec, entities.ThemeConfig{Default: "corporate"})
		require.Len(t, spec.Theme, 2)
		assert.Equal(t, entities.DefaultTheme{Name: "corporate"}, spec.Theme[1])
	})

	t.Run("keeps deck default", func(t *testing.T) {
		spec := &entities.DeckSpec{Theme: []entities.ThemeSource{entities.DefaultTheme{Name: "dark"}}}
		applyThemeDefaults(spec, entities.ThemeConfig{Default: "corporate"})
		assert.Equal(t, []entities.ThemeSource{entities.DefaultTheme{Name: "dark"}}, spec.Theme)
	})

	t.Run("dark mode", func(t *testing.T) {
		spec := &entities.DeckSpec{}
		applyThemeDefaults(spec, entities.ThemeConfig{DarkMode: true})
		require.Len(t, spec.Theme, 2)
		assert.Equal(t, entities.ExplicitTheme{DarkMode: true}, spec.Theme[0])
		assert.Equal(t, entities.DefaultTheme{Name: entities.DefaultThemeName}, spec.Theme[1])
	})
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "validated", formatProgress(entities.ProgressEvent{Stage: entities.StageValidated}))
	assert.Equal(t, "slide_done 2/5", formatProgress(entities.ProgressEvent{Stage: entities.StageSlideDone, Slide: 2, Total: 5}))
	assert.Equal(t, "theme_resolved: primary #005596",
		formatProgress(entities.ProgressEvent{Stage: entities.StageThemeReady, Message: "primary #005596"}))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
}

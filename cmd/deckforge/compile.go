package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fredcamaral/deckforge/internal/adapters/secondary/deckfile"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/watcher"
	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
	"github.com/fredcamaral/deckforge/internal/domain/services"
)

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:   "compile [deck]",
	Short: "Render a deck document into a PDF or PNG artifact",
	Long: `Validate a deck document, resolve its theme and render every slide.
Overflowing bullet lists and long code blocks continue on extra slides;
assets that cannot be fetched become labeled placeholders.

Example:
  deckforge compile deck.yaml
  deckforge compile deck.yaml -o dist --format png
  deckforge compile deck.yaml --watch --open`,
	Args: validateDeckArgs,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	addCompileFlags(compileCmd.Flags())
}

func addCompileFlags(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "", "Output directory (overrides config)")
	fs.StringP("format", "f", "", "Output format: pdf or png (overrides config)")
	fs.Int("workers", 0, "Slides rendered in parallel (overrides config)")
	fs.String("cache-dir", "", "Asset cache directory (overrides config)")
	fs.Bool("no-probe", false, "Skip reachability checks for remote assets")
	fs.StringP("theme", "t", "", "Built-in default theme (overrides config)")
	fs.Bool("dark-mode", false, "Prefer dark backgrounds")
	fs.Bool("progress", false, "Print progress events")
	fs.BoolP("watch", "w", false, "Recompile whenever the deck or its hint files change")
	fs.Duration("watch-interval", 500*time.Millisecond, "How often watched files are polled")
	fs.Bool("open", false, "Open the artifact in the platform viewer after compiling")
}

// watchDebounce folds bursts of saves into one recompile
const watchDebounce = 300 * time.Millisecond

// validateDeckArgs checks that exactly one deck path was given
func validateDeckArgs(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	deckPath := args[0]
	baseDir := filepath.Dir(deckPath)

	cfg, err := loadConfig(cmd, baseDir)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, verbose)

	a, err := newApp(cmd.Context(), cfg, baseDir, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing asset cache", slog.String("error", err.Error()))
		}
	}()

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		interval, _ := cmd.Flags().GetDuration("watch-interval")
		w := watcher.NewPollingWatcher(interval, watchDebounce, logger)
		return watchDeck(cmd, a, w, deckPath)
	}
	return compileDeck(cmd, a, deckPath)
}

// compileDeck loads, compiles and reports one deck
func compileDeck(cmd *cobra.Command, a *app, deckPath string) error {
	spec, err := deckfile.LoadDeck(deckPath)
	if err != nil {
		return err
	}
	applyThemeDefaults(spec, a.cfg.Theme)

	var progress services.ProgressFunc
	if show, _ := cmd.Flags().GetBool("progress"); show {
		out := cmd.ErrOrStderr()
		progress = func(e entities.ProgressEvent) {
			fmt.Fprintln(out, mutedStyle.Render(formatProgress(e)))
		}
	}

	result, compileErr := a.compiler.Compile(cmd.Context(), spec, progress)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON && result != nil {
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else if result != nil {
		printResult(cmd.OutOrStdout(), result)
	}

	if compileErr != nil {
		if errors.Is(compileErr, entities.ErrCompileCanceled) {
			return errors.New("compile canceled")
		}
		return compileErr
	}

	if open, _ := cmd.Flags().GetBool("open"); open && result != nil && result.Success {
		openArtifact(a.opener, result.ArtifactPath, a.logger)
	}
	return nil
}

// watchDeck compiles the deck, then recompiles on every change to it or its
// hint files until the command context ends. Failed recompiles are
// reported and watching continues.
func watchDeck(cmd *cobra.Command, a *app, w ports.FileWatcher, deckPath string) error {
	ctx := cmd.Context()
	out := cmd.ErrOrStderr()

	if err := compileDeck(cmd, a, deckPath); err != nil {
		fmt.Fprintln(out, errorStyle.Render("✗ "+err.Error()))
	}

	paths, err := deckfile.WatchPaths(deckPath)
	if err != nil {
		paths = []string{deckPath}
	}
	events, err := w.Watch(ctx, paths...)
	if err != nil {
		return fmt.Errorf("watching %s: %w", deckPath, err)
	}
	defer func() { _ = w.Stop() }()

	fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Watching %d file(s) for changes", len(paths))))
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			a.logger.Info("change detected", slog.String("path", e.Path), slog.String("type", e.Type.String()))
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%s %s, recompiling", e.Path, e.Type)))
			if err := compileDeck(cmd, a, deckPath); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintln(out, errorStyle.Render("✗ "+err.Error()))
			}
		}
	}
}

// openArtifact hands the artifact to the platform viewer; failures only warn
func openArtifact(opener ports.ArtifactOpener, path string, logger *slog.Logger) {
	if opener == nil || path == "" {
		return
	}
	if err := opener.Open(path); err != nil {
		logger.Warn("failed to open artifact", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// formatProgress renders one progress event as a log line
func formatProgress(e entities.ProgressEvent) string {
	line := e.Stage
	if e.Total > 0 {
		line = fmt.Sprintf("%s %d/%d", e.Stage, e.Slide, e.Total)
	}
	if e.Message != "" {
		line += ": " + e.Message
	}
	return line
}

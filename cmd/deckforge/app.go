package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/deckforge/internal/adapters/secondary/cache"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/config"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/deckfile"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/fetch"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/opener"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/text"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/writer"
	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
	"github.com/fredcamaral/deckforge/internal/domain/services"
)

// overrideFlags lists the command flags that map onto config overrides
var overrideFlags = []string{
	"output", "format", "port", "host", "workers", "cache-dir",
	"no-probe", "dark-mode", "theme", "log-level",
}

// collectFlags gathers the override flags the user actually set
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	for _, name := range overrideFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "int":
			v, _ := cmd.Flags().GetInt(name)
			flags[name] = v
		case "bool":
			v, _ := cmd.Flags().GetBool(name)
			flags[name] = v
		default:
			flags[name] = f.Value.String()
		}
	}
	return flags
}

// loadConfig resolves the effective configuration for a command run
// against workingDir: CLI flags > env > local file > global file > defaults
func loadConfig(cmd *cobra.Command, workingDir string) (*entities.Config, error) {
	loader := config.NewTOMLLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader = config.NewTOMLLoaderAt(path)
	}

	svc := services.NewConfigService(loader, config.NewConfigMerger(), nil)
	cfg, err := svc.LoadConfig(cmd.Context(), workingDir, collectFlags(cmd))
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from logging config
func newLogger(w io.Writer, cfg entities.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.GetLevel() {
	case entities.LogLevelDebug:
		level = slog.LevelDebug
	case entities.LogLevelWarn:
		level = slog.LevelWarn
	case entities.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSONFormat {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// app holds the wired services for one command run
type app struct {
	cfg       *entities.Config
	logger    *slog.Logger
	themes    *services.ThemeResolver
	layouts   *services.LayoutResolver
	validator *services.Validator
	compiler  *services.DeckCompiler
	store     *cache.Store
	opener    ports.ArtifactOpener
}

// newApp wires adapters and services. Local asset paths resolve against baseDir.
func newApp(ctx context.Context, cfg *entities.Config, baseDir string, logger *slog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, baseDir, logger)
	if err != nil {
		return nil, err
	}

	router := fetch.NewRouter(newHTTPClient(cfg.Validator.GetProbeTimeout()), baseDir)
	templates := deckfile.NewTemplateLoader(resolveDir(baseDir, cfg.Theme.TemplatesDir))
	layouts := services.NewLayoutResolver()
	themes := services.NewThemeResolver(cfg.Pipeline.GetPaletteSteps(), logger)
	codeLines := cfg.Pipeline.GetCodeLinesPerSlide()

	validator := services.NewValidator(services.ValidatorOptions{
		ProbeAssets:       cfg.Validator.ProbesEnabled(),
		ProbeConcurrency:  cfg.Validator.GetProbeConcurrency(),
		ProbeTimeout:      cfg.Validator.GetProbeTimeout(),
		CodeLinesPerSlide: codeLines,
	}, layouts, router, store, templates, logger)

	pipeline := services.NewContentPipeline(
		text.NewMarkdownFormatter(),
		text.NewStrictSanitizer(),
		text.NewChromaHighlighter("", ""),
		codeLines,
		logger,
	)

	compiler := services.NewDeckCompiler(services.CompilerDeps{
		Validator: validator,
		Themes:    themes,
		Layouts:   layouts,
		Pipeline:  pipeline,
		Cache:     store,
		Templates: templates,
		Writers:   writer.NewFactory(),
		Clock:     ports.NewRealTimeProvider(),
		Logger:    logger,
	}, services.CompilerOptions{
		Workers:   cfg.Pipeline.GetWorkers(),
		OutputDir: cfg.Output.Directory,
		Format:    cfg.Output.GetFormat(),
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		themes:    themes,
		layouts:   layouts,
		validator: validator,
		compiler:  compiler,
		store:     store,
		opener:    opener.NewOpener(),
	}, nil
}

// openStore opens the asset cache with its configured index
func openStore(ctx context.Context, cfg *entities.Config, baseDir string, logger *slog.Logger) (*cache.Store, error) {
	var index ports.CacheIndex
	if cfg.Cache.Index == "memory" {
		index = cache.NewMemoryIndex()
	} else {
		sqlite, err := cache.OpenSQLiteIndex(ctx, filepath.Join(cfg.Cache.Dir, "index.db"))
		if err != nil {
			return nil, fmt.Errorf("opening cache index: %w", err)
		}
		index = sqlite
	}

	maxW, maxH := cfg.Cache.GetMaxImageSize()
	fetcher := fetch.NewRouter(newHTTPClient(cfg.Cache.GetFetchTimeout()), baseDir)
	store, err := cache.NewStore(ctx, cache.Options{
		Dir:          cfg.Cache.Dir,
		TTL:          cfg.Cache.GetTTL(),
		FetchTimeout: cfg.Cache.GetFetchTimeout(),
		MaxWidth:     maxW,
		MaxHeight:    maxH,
		Logger:       logger,
	}, index, fetcher)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("opening asset cache: %w", err)
	}
	return store, nil
}

func newHTTPClient(timeout time.Duration) ports.HTTPClient {
	return ports.NewRealHTTPClient(ports.HTTPClientConfig{
		Timeout:         timeout,
		FollowRedirects: true,
		UserAgent:       "deckforge/" + Version,
	})
}

// Close releases the asset cache index
func (a *app) Close() error {
	return a.store.Close()
}

// applyThemeDefaults adds the configured default theme and dark mode
// preference as the lowest-precedence theme sources of spec
func applyThemeDefaults(spec *entities.DeckSpec, cfg entities.ThemeConfig) {
	hasDefault := false
	for _, s := range spec.Theme {
		if s.Kind() == entities.SourceDefault {
			hasDefault = true
		}
	}
	if cfg.DarkMode {
		spec.Theme = append(spec.Theme, entities.ExplicitTheme{DarkMode: true})
	}
	if !hasDefault {
		spec.Theme = append(spec.Theme, entities.DefaultTheme{Name: cfg.GetDefault()})
	}
}

// resolveDir anchors a relative directory at base
func resolveDir(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	httpadapter "github.com/fredcamaral/deckforge/internal/adapters/primary/http"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/cache"
	"github.com/fredcamaral/deckforge/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the compile API over HTTP",
	Long: `Start an HTTP server exposing validation, theme resolution and
compilation. Progress of every compile is streamed to websocket clients
on /ws/compile, which may also submit decks of their own.

Example:
  deckforge serve
  deckforge serve --port 9000 --base-dir ./decks -o ./dist`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd.Flags())
}

// addServeFlags registers serve flags; defaults will be overridden by config loading
func addServeFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", 0, "Port to serve on (overrides config)")
	fs.String("host", "", "Host to bind to (overrides config)")
	fs.StringP("output", "o", "", "Artifact directory (overrides config)")
	fs.String("base-dir", ".", "Directory relative deck paths resolve against")
	fs.Int("workers", 0, "Slides rendered in parallel (overrides config)")
	fs.String("cache-dir", "", "Asset cache directory (overrides config)")
	fs.Bool("no-probe", false, "Skip reachability checks for remote assets")
	fs.Int("rate-limit", 0, "Requests per minute per client (default 100)")
	fs.Duration("sweep-interval", time.Hour, "How often stale cache entries are removed, 0 to disable")
}

// metricsInterval is how often runtime memory and goroutines are sampled
const metricsInterval = 30 * time.Second

// validateServeConfig validates configuration after it's loaded
func validateServeConfig(config *entities.Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Server.Port)
	}
	if strings.ContainsAny(config.Server.Host, " !") {
		return fmt.Errorf("invalid host: %s", config.Server.Host)
	}
	if config.Output.Directory == "" {
		return errors.New("output directory is required")
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	baseDir, _ := cmd.Flags().GetString("base-dir")

	cfg, err := loadConfig(cmd, baseDir)
	if err != nil {
		return err
	}
	if err := validateServeConfig(cfg); err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, verbose)

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, baseDir, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing asset cache", slog.String("error", err.Error()))
		}
	}()

	recorder := monitoring.NewRecorder(nil, monitoring.DefaultLimits())
	if err := recorder.Start(ctx, metricsInterval); err != nil {
		return fmt.Errorf("starting metrics: %w", err)
	}
	defer recorder.Stop()

	rateLimit, _ := cmd.Flags().GetInt("rate-limit")
	server := httpadapter.NewServer(httpadapter.API{
		Themes:    a.themes,
		Layouts:   a.layouts,
		Validator: a.validator,
		Compiler:  a.compiler,
		Cache:     a.store,
		Metrics:   recorder,
	}, cfg.Server, httpadapter.Options{
		BaseDir:   baseDir,
		OutputDir: cfg.Output.Directory,
		RateLimit: rateLimit,
	}, logger)

	if err := server.Start(ctx, cfg.Server.Port, cfg.Server.Host); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(
		fmt.Sprintf("Server running at: http://%s:%d", cfg.Server.Host, cfg.Server.Port)))

	if interval, _ := cmd.Flags().GetDuration("sweep-interval"); interval > 0 {
		go sweepLoop(ctx, a.store, interval, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down server")

	if err := server.Stop(context.Background()); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	return nil
}

// sweepLoop removes stale cache entries every interval until ctx is done
func sweepLoop(ctx context.Context, store *cache.Store, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := store.Sweep(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("cache sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

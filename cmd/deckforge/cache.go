package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fredcamaral/deckforge/internal/adapters/secondary/cache"
)

// cacheCmd groups the asset cache commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the asset cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show asset cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(store *cache.Store) error {
			stats := store.Stats()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		})
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stale cache entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(store *cache.Store) error {
			removed, err := store.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweeping cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ removed %d stale entries", removed)))
			return nil
		})
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate [source...]",
	Short: "Drop cached copies of the given asset sources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *cache.Store) error {
			for _, source := range args {
				if err := store.Invalidate(cmd.Context(), source); err != nil {
					return fmt.Errorf("invalidating %s: %w", source, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "invalidated "+source)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheSweepCmd, cacheInvalidateCmd)

	addCacheFlags(cacheCmd.PersistentFlags())
}

func addCacheFlags(fs *pflag.FlagSet) {
	fs.String("cache-dir", "", "Asset cache directory (overrides config)")
}

// withStore opens the configured asset cache for the duration of fn
func withStore(cmd *cobra.Command, fn func(*cache.Store) error) error {
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, verbose)

	store, err := openStore(cmd.Context(), cfg, ".", logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing asset cache", slog.String("error", err.Error()))
		}
	}()
	return fn(store)
}

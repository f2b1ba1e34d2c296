package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fredcamaral/deckforge/internal/adapters/secondary/deckfile"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [deck]",
	Short: "Check a deck document without rendering it",
	Long: `Run every check compile would run before rendering: schema, layout,
capacity, theme colors, output settings and asset reachability.
Exits non-zero when the report contains errors.

Example:
  deckforge validate deck.yaml
  deckforge validate deck.yaml --no-probe --json`,
	Args: validateDeckArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addValidateFlags(validateCmd.Flags())
}

func addValidateFlags(fs *pflag.FlagSet) {
	fs.Bool("no-probe", false, "Skip reachability checks for remote assets")
	fs.String("cache-dir", "", "Asset cache directory (overrides config)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	deckPath := args[0]
	baseDir := filepath.Dir(deckPath)

	cfg, err := loadConfig(cmd, baseDir)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, verbose)

	spec, err := deckfile.LoadDeck(deckPath)
	if err != nil {
		return err
	}
	applyThemeDefaults(spec, cfg.Theme)

	a, err := newApp(cmd.Context(), cfg, baseDir, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing asset cache", slog.String("error", err.Error()))
		}
	}()

	report := a.validator.Validate(cmd.Context(), spec)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		printValidation(cmd.OutOrStdout(), deckPath, report)
	}

	if report.HasErrors() {
		return fmt.Errorf("validation failed with %d error(s)", len(report.Errors))
	}
	return nil
}

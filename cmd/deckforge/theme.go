package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fredcamaral/deckforge/internal/adapters/secondary/deckfile"
	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
	"github.com/fredcamaral/deckforge/internal/domain/services"
)

// themeCmd groups the theme commands
var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Inspect theme resolution",
}

var themeResolveCmd = &cobra.Command{
	Use:   "resolve [deck]",
	Short: "Show the theme a deck resolves to and why",
	Long: `Resolve the theme sources of a deck with the standard precedence
explicit > scraped > template > default and print the resulting colors,
fonts and palette together with the decision behind each value.`,
	Args: validateDeckArgs,
	RunE: runThemeResolve,
}

var themeMergeCmd = &cobra.Command{
	Use:   "merge [source...]",
	Short: "Merge standalone theme source documents",
	Long: `Merge one or more theme source documents. Each file holds a single
theme entry (colors, template, hints or default) or raw scraper output.

With --priority balanced (the default) higher-precedence kinds win; with
--priority first the earliest file that supplies a value wins.

Example:
  deckforge theme merge brand.yaml scraped.json --priority first`,
	Args: cobra.MinimumNArgs(1),
	RunE: runThemeMerge,
}

var themeTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List templates in the templates directory",
	Args:  cobra.NoArgs,
	RunE:  runThemeTemplates,
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeResolveCmd, themeMergeCmd, themeTemplatesCmd)

	addThemeResolveFlags(themeResolveCmd.Flags())
	addThemeMergeFlags(themeMergeCmd.Flags())
}

func addThemeResolveFlags(fs *pflag.FlagSet) {
	fs.StringP("theme", "t", "", "Built-in default theme (overrides config)")
	fs.Bool("dark-mode", false, "Prefer dark backgrounds")
}

func addThemeMergeFlags(fs *pflag.FlagSet) {
	fs.String("priority", string(entities.PriorityBalanced), "Merge priority: balanced or first")
}

func runThemeResolve(cmd *cobra.Command, args []string) error {
	deckPath := args[0]
	baseDir := filepath.Dir(deckPath)

	cfg, err := loadConfig(cmd, baseDir)
	if err != nil {
		return err
	}
	spec, err := deckfile.LoadDeck(deckPath)
	if err != nil {
		return err
	}
	applyThemeDefaults(spec, cfg.Theme)

	templates := deckfile.NewTemplateLoader(resolveDir(baseDir, cfg.Theme.TemplatesDir))
	sources, err := loadTemplateSources(cmd.Context(), templates, spec.Theme)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	resolver := services.NewThemeResolver(cfg.Pipeline.GetPaletteSteps(), newLogger(cmd.ErrOrStderr(), cfg.Logging, verbose))
	res, err := resolver.Resolve(sources)
	if err != nil {
		return err
	}
	return printThemeResolution(cmd, res)
}

func runThemeMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return err
	}

	sources := make([]entities.ThemeSource, 0, len(args))
	for _, path := range args {
		src, err := deckfile.LoadThemeSource(path)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	templates := deckfile.NewTemplateLoader(cfg.Theme.TemplatesDir)
	sources, err = loadTemplateSources(cmd.Context(), templates, sources)
	if err != nil {
		return err
	}

	priority, _ := cmd.Flags().GetString("priority")
	verbose, _ := cmd.Flags().GetBool("verbose")
	resolver := services.NewThemeResolver(cfg.Pipeline.GetPaletteSteps(), newLogger(cmd.ErrOrStderr(), cfg.Logging, verbose))
	res, err := resolver.Merge(sources, entities.MergePriority(priority))
	if err != nil {
		return err
	}
	return printThemeResolution(cmd, res)
}

func runThemeTemplates(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return err
	}
	names, err := deckfile.NewTemplateLoader(cfg.Theme.TemplatesDir).List()
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), names)
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no templates in "+cfg.Theme.TemplatesDir))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("Templates"))
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), "  "+n)
	}
	return nil
}

func printThemeResolution(cmd *cobra.Command, res *entities.ThemeResolution) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printResolution(cmd.OutOrStdout(), res)
	return nil
}

// loadTemplateSources replaces template references with their loaded themes
func loadTemplateSources(ctx context.Context, loader ports.TemplateLoader, sources []entities.ThemeSource) ([]entities.ThemeSource, error) {
	out := make([]entities.ThemeSource, len(sources))
	for i, src := range sources {
		out[i] = src
		tmpl, ok := src.(entities.TemplateTheme)
		if !ok || tmpl.Path == "" || len(tmpl.Colors) > 0 {
			continue
		}
		loaded, err := loader.Load(ctx, tmpl.Path)
		if err != nil {
			return nil, fmt.Errorf("loading template %s: %w", tmpl.Path, err)
		}
		out[i] = loaded
	}
	return out, nil
}

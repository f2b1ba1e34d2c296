package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4169E1"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#32CD32"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6347"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CED1"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	labelStyle   = lipgloss.NewStyle().Width(18).Foreground(lipgloss.Color("#808080"))
)

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// printReport lists diagnostics grouped by severity
func printReport(w io.Writer, report entities.ValidationReport) {
	groups := []struct {
		title string
		style lipgloss.Style
		items []entities.Diagnostic
	}{
		{"Errors", errorStyle, report.Errors},
		{"Warnings", warnStyle, report.Warnings},
		{"Info", infoStyle, report.Info},
	}
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		fmt.Fprintln(w, g.style.Render(fmt.Sprintf("%s (%d)", g.title, len(g.items))))
		for _, d := range g.items {
			fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("["+string(d.Kind)+"]"), d.String())
		}
	}
}

// printValidation summarizes a validation run
func printValidation(w io.Writer, path string, report entities.ValidationReport) {
	printReport(w, report)
	if report.HasErrors() {
		fmt.Fprintln(w, errorStyle.Render("✗ "+path+" is invalid"))
		return
	}
	fmt.Fprintln(w, successStyle.Render("✓ "+path+" is valid"))
}

// printResult summarizes a compile
func printResult(w io.Writer, result *entities.CompileResult) {
	printReport(w, result.Report)
	if !result.Success {
		fmt.Fprintln(w, errorStyle.Render("✗ compile failed"))
		return
	}

	fmt.Fprintln(w, successStyle.Render("✓ "+result.ArtifactPath))
	rows := [][2]string{
		{"Run", result.RunID},
		{"Source slides", fmt.Sprint(result.Stats.SourceSlides)},
		{"Rendered slides", fmt.Sprint(result.Stats.RenderedSlides)},
		{"Assets fetched", fmt.Sprint(result.Stats.AssetsFetched)},
		{"Assets cached", fmt.Sprint(result.Stats.AssetsFromCache)},
		{"Duration", result.Stats.Duration.Round(time.Millisecond).String()},
	}
	printRows(w, rows)
}

// printResolution shows a resolved theme and the decisions behind it
func printResolution(w io.Writer, res *entities.ThemeResolution) {
	t := res.Theme
	fmt.Fprintln(w, headerStyle.Render("Theme"))
	printRows(w, [][2]string{
		{"Primary", swatch(t.Primary)},
		{"Secondary", swatch(t.Secondary)},
		{"Accent", swatch(t.Accent)},
		{"Background", swatch(t.Background)},
		{"Text", swatch(t.Text)},
		{"Heading font", t.HeadingFont},
		{"Body font", t.BodyFont},
		{"Dark mode", fmt.Sprint(t.DarkMode)},
	})

	palette := make([]string, 0, len(t.Palette))
	for _, c := range t.Palette {
		palette = append(palette, swatch(c))
	}
	fmt.Fprintln(w, labelStyle.Render("Palette")+strings.Join(palette, " "))

	if len(res.Decisions) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Decisions"))
		for _, d := range res.Decisions {
			fmt.Fprintln(w, "  "+d)
		}
	}
	var report entities.ValidationReport
	report.AddAll(res.Diagnostics)
	printReport(w, report)
}

// printLayouts lists the layout catalog
func printLayouts(w io.Writer, layouts []entities.LayoutDefinition) {
	fmt.Fprintln(w, headerStyle.Render("Layouts"))
	for _, l := range layouts {
		detail := fmt.Sprintf("%d items, %d chars", l.Capacity.MaxItems, l.Capacity.MaxChars)
		if len(l.Regions.Columns) > 0 {
			detail += fmt.Sprintf(", %d columns", len(l.Regions.Columns))
		}
		if len(l.ImageSlots) > 0 {
			detail += fmt.Sprintf(", %d image slots", len(l.ImageSlots))
		}
		if l.Fallback != "" {
			detail += ", falls back to " + l.Fallback
		}
		fmt.Fprintf(w, "  %s%s\n", labelStyle.Render(l.Name), mutedStyle.Render(detail))
	}
}

// printStats shows asset cache statistics
func printStats(w io.Writer, s entities.CacheStats) {
	fmt.Fprintln(w, headerStyle.Render("Asset cache"))
	printRows(w, [][2]string{
		{"Entries", fmt.Sprint(s.Entries)},
		{"Size", formatBytes(s.TotalBytes)},
		{"Hits", fmt.Sprint(s.Hits)},
		{"Misses", fmt.Sprint(s.Misses)},
		{"Hit rate", fmt.Sprintf("%.1f%%", s.HitRate)},
		{"Fetches", fmt.Sprint(s.Fetches)},
		{"Evictions", fmt.Sprint(s.Evictions)},
		{"Leased", fmt.Sprint(s.Leased)},
	})
}

func printRows(w io.Writer, rows [][2]string) {
	for _, r := range rows {
		fmt.Fprintln(w, labelStyle.Render(r[0])+r[1])
	}
}

// swatch renders a hex color next to a block painted in it
func swatch(hex string) string {
	if hex == "" {
		return mutedStyle.Render("-")
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ") + " " + hex
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
